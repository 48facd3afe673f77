package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

var orderConfirmationTmpl = template.Must(template.New("order").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333; text-align: center;">Thank you for your order!</h1>
  <p>Dear {{.CustomerName}},</p>
  <p>Your order <strong>{{.OrderID}}</strong> has been received.</p>
  <table style="width: 100%; border-collapse: collapse;">
    {{range .Items}}
    <tr>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">x{{.Quantity}}</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{.Price}}</td>
    </tr>
    {{end}}
  </table>
  <p style="text-align: right; font-size: 18px;"><strong>Total: {{.Total}}</strong></p>
</div>
`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333; text-align: center;">Welcome to Our Store!</h1>
  <p>Dear {{.FirstName}},</p>
  <p>Thank you for creating an account with us! We're excited to have you as part of our community.</p>
</div>
`))

var passwordResetTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333; text-align: center;">Reset your password</h1>
  <p>We received a request to reset the password for your account.</p>
  <p style="text-align: center;">
    <a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background: #333; color: #fff; text-decoration: none;">Reset Password</a>
  </p>
  <p>This link expires in one hour. If you did not request this, you can ignore this email.</p>
</div>
`))

type orderLineView struct {
	Name     string
	Quantity int64
	Price    string
}

type orderMailView struct {
	CustomerName string
	OrderID      string
	Items        []orderLineView
	Total        string
}

// Mailer は注文確認・ウェルカムメールを組み立てて送る。
// 送信失敗は呼び出し側でログに残すだけ（注文の完了は妨げない）。
type Mailer struct {
	sender     Sender
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	variants   repo.VariantRepository
	products   repo.ProductRepository
	log        *zap.Logger
}

// DI
func NewMailer(
	sender Sender,
	orders repo.OrderRepository,
	orderItems repo.OrderItemRepository,
	variants repo.VariantRepository,
	products repo.ProductRepository,
	log *zap.Logger,
) *Mailer {
	return &Mailer{
		sender:     sender,
		orders:     orders,
		orderItems: orderItems,
		variants:   variants,
		products:   products,
		log:        log,
	}
}

// 注文＋明細＋商品名を取り直してHTMLメールを送る
func (m *Mailer) SendOrderConfirmation(ctx context.Context, orderID string, customerEmail string, customerName string) error {
	order, err := m.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}

	items, err := m.orderItems.ListByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	view := orderMailView{
		CustomerName: customerName,
		OrderID:      order.ID,
		Total:        formatCents(order.TotalAmount),
	}
	if view.CustomerName == "" {
		view.CustomerName = "Valued Customer"
	}

	for _, it := range items {
		name := "Item"
		if v, err := m.variants.FindByID(ctx, it.VariantID); err == nil {
			if p, err := m.products.FindByID(ctx, v.ProductID); err == nil {
				name = p.Name
			}
		}
		view.Items = append(view.Items, orderLineView{
			Name:     name,
			Quantity: it.Quantity,
			Price:    formatCents(it.PriceAtPurchase * it.Quantity),
		})
	}

	var buf bytes.Buffer
	if err := orderConfirmationTmpl.Execute(&buf, view); err != nil {
		return err
	}

	return m.sender.Send(ctx, customerEmail, "Your order confirmation", buf.String())
}

// 会員登録のウェルカムメール
func (m *Mailer) SendWelcome(ctx context.Context, email string, firstName string) error {
	if firstName == "" {
		firstName = "Valued Customer"
	}

	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, struct{ FirstName string }{FirstName: firstName}); err != nil {
		return err
	}

	return m.sender.Send(ctx, email, "Welcome to Our Store!", buf.String())
}

// パスワード再設定リンクを送る
func (m *Mailer) SendPasswordReset(ctx context.Context, email string, link string) error {
	var buf bytes.Buffer
	if err := passwordResetTmpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return err
	}

	return m.sender.Send(ctx, email, "Reset your password", buf.String())
}

// セントを$表記へ
func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
