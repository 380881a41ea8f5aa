// Package notifications selects and renders the bot messages sent to
// customers, couriers and tracking observers when an order changes.
package notifications

import (
	"bytes"
	"text/template"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
)

// Template is a titled message body rendered against TemplateData.
type Template struct {
	Name  string
	Title string
	body  *template.Template
}

// TemplateData is the rendering context of every template.
type TemplateData struct {
	OrderID      string
	Number       int
	CustomerName string
	Total        int64
	TableNumber  string
	CourierName  string
	Reason       string
}

// Render executes the body template.
func (t Template) Render(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := t.body.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newTemplate(name, title, body string) Template {
	return Template{
		Name:  name,
		Title: title,
		body:  template.Must(template.New(name).Parse(body)),
	}
}

type templateKey struct {
	status    order.Status
	orderType order.Type
	audience  ports.Audience
}

// anyType matches every order type when no type-specific template exists.
const anyType order.Type = "*"

var catalog = map[templateKey]Template{
	{order.Confirmed, anyType, ports.AudienceCustomer}: newTemplate("customer_confirmed",
		"Order confirmed", "Your order #{{.Number}} has been confirmed and is being prepared."),

	{order.Ready, order.TypeDelivery, ports.AudienceCustomer}: newTemplate("customer_ready_delivery",
		"Order ready", "Your order #{{.Number}} is ready and waiting for a courier."),
	{order.Ready, order.TypePickup, ports.AudienceCustomer}: newTemplate("customer_ready_pickup",
		"Order ready", "Your order #{{.Number}} is ready. You can pick it up now."),
	{order.Ready, anyType, ports.AudienceCustomer}: newTemplate("customer_ready_table",
		"Order ready", "Your order #{{.Number}} is ready and will be served{{if .TableNumber}} at table {{.TableNumber}}{{end}} shortly."),

	{order.OnDelivery, anyType, ports.AudienceCustomer}: newTemplate("customer_on_delivery",
		"On the way", "Your order #{{.Number}} is on the way{{if .CourierName}} with {{.CourierName}}{{end}}."),

	{order.Delivered, order.TypeDelivery, ports.AudienceCustomer}: newTemplate("customer_delivered",
		"Delivered", "Your order #{{.Number}} has been delivered. Enjoy your meal!"),
	{order.Delivered, order.TypePickup, ports.AudienceCustomer}: newTemplate("customer_handed_over",
		"Picked up", "Your order #{{.Number}} has been handed over. Enjoy your meal!"),
	{order.Delivered, anyType, ports.AudienceCustomer}: newTemplate("customer_served",
		"Served", "Your order #{{.Number}} has been served. Enjoy your meal!"),

	{order.Assigned, anyType, ports.AudienceCourier}: newTemplate("courier_assigned",
		"New order", "Order #{{.Number}} for {{.CustomerName}} is assigned to you. Total: {{.Total}}."),
}

var sessionEnded = newTemplate("observer_session_ended",
	"Tracking ended", "Live tracking of order {{.OrderID}} has ended ({{.Reason}}).")

// SelectTemplate maps (status, order type, audience) to a template. Only
// confirmed, ready, on_delivery and delivered reach customers and only
// assigned reaches couriers; every other combination is silent.
func SelectTemplate(status order.Status, orderType order.Type, audience ports.Audience) (Template, bool) {
	if t, ok := catalog[templateKey{status, orderType, audience}]; ok {
		return t, true
	}
	t, ok := catalog[templateKey{status, anyType, audience}]
	return t, ok
}

// SessionEndedTemplate is sent to an observer when tracking closes.
func SessionEndedTemplate() Template {
	return sessionEnded
}
