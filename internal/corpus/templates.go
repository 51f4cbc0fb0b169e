package corpus

import (
	"fmt"
	"strings"
	"text/template"
)

// TemplateVersion changes whenever the rendered wording changes. It is part of the vector
// store schema stamp, so bumping it forces a full rebuild of stored documents.
const TemplateVersion = "3"

var funcs = template.FuncMap{
	"money":   func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"percent": func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"orElse": func(v, fallback string) string {
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		return v
	},
}

var productTemplate = template.Must(template.New("product").Funcs(funcs).Parse(
	`Product: {{.Name}}
Category: {{orElse .Category "uncategorized"}}
Buying price: {{money .BuyingPrice}}
Selling price: {{money .SellingPrice}}
Profit margin: {{percent .Margin}}
Quantity: {{.Quantity}} units
Stock status: {{.Status}}
Expiry date: {{orElse .ExpiryDate "not set"}}
Total value: {{money .TotalValue}}`))

var supplierTemplate = template.Must(template.New("supplier").Funcs(funcs).Parse(
	`Supplier: {{.Name}}
Category: {{orElse .Category "general"}}
Phone: {{orElse .Phone "not provided"}}
WhatsApp: {{orElse .WhatsApp "not provided"}}
{{- if .Email}}
Email: {{.Email}}
{{- end}}
Contact {{.Name}} by phone at {{orElse .Phone "not provided"}} or on WhatsApp at {{orElse .WhatsApp "not provided"}}.
To place an order with {{.Name}}, call {{orElse .Phone "not provided"}}{{if .Email}} or send an email to {{.Email}}{{end}}.
{{.Name}} supplier contact details: phone number {{orElse .Phone "not provided"}}, whatsapp number {{orElse .WhatsApp "not provided"}}.`))

var salesTemplate = template.Must(template.New("sales").Funcs(funcs).Parse(
	`Sales summary
Total revenue: {{money .Revenue}}
Items sold: {{.Items}}
Transactions: {{.Transactions}}
{{- if .Transactions}}
Period: {{.From}} to {{.To}}
{{- end}}
{{- range .Categories}}
Revenue for {{.Name}}: {{money .Revenue}} from {{.Items}} items
{{- end}}`))

func render(t *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", t.Name(), err)
	}
	return sb.String(), nil
}
