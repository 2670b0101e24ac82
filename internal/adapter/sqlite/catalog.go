package sqlite

// The entity graph catalog: every record type that references a tenant,
// grouped into deletion phases ordered by dependency. Children go before
// parents, so no statement ever hits a not-yet-broken foreign reference.
// The order is data, consumed by the purge engine; tests assert the
// child-before-parent invariant against dependencies below.

// Step deletes one entity type. Query must carry exactly one bind
// parameter: the tenant ID. Join-scoped children use an IN (SELECT …)
// sub-query over their intermediate table rather than materializing the
// intermediate ID set in application memory.
type Step struct {
	Entity string
	Query  string
}

// Phase is an ordered group of steps with no dependency from a later
// phase onto an earlier one's rows.
type Phase struct {
	Name  string
	Steps []Step
}

// Catalog lists the purge phases in execution order. The tenant row itself
// is not a catalog entry: its delete is the engine's unconditional final
// step, outside the tolerate-failure policy.
var Catalog = []Phase{
	{
		Name: "logs",
		Steps: []Step{
			{Entity: "activity_logs", Query: `DELETE FROM activity_logs WHERE tenant_id = ?`},
			{Entity: "notifications", Query: `DELETE FROM notifications WHERE tenant_id = ?`},
			{Entity: "report_snapshots", Query: `DELETE FROM report_snapshots WHERE tenant_id = ?`},
		},
	},
	{
		Name: "social",
		Steps: []Step{
			{Entity: "comments", Query: `DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE tenant_id = ?)`},
			{Entity: "reactions", Query: `DELETE FROM reactions WHERE post_id IN (SELECT id FROM posts WHERE tenant_id = ?)`},
			{Entity: "posts", Query: `DELETE FROM posts WHERE tenant_id = ?`},
		},
	},
	{
		Name: "crm",
		Steps: []Step{
			{Entity: "campaign_sends", Query: `DELETE FROM campaign_sends WHERE campaign_id IN (SELECT id FROM campaigns WHERE tenant_id = ?)`},
			{Entity: "campaigns", Query: `DELETE FROM campaigns WHERE tenant_id = ?`},
			{Entity: "leads", Query: `DELETE FROM leads WHERE tenant_id = ?`},
			{Entity: "email_templates", Query: `DELETE FROM email_templates WHERE tenant_id = ?`},
		},
	},
	{
		Name: "loyalty",
		Steps: []Step{
			{Entity: "loyalty_transactions", Query: `DELETE FROM loyalty_transactions WHERE tenant_id = ?`},
			{Entity: "achievements", Query: `DELETE FROM achievements WHERE tenant_id = ?`},
			{Entity: "milestones", Query: `DELETE FROM milestones WHERE tenant_id = ?`},
		},
	},
	{
		Name: "billing",
		Steps: []Step{
			{Entity: "payments", Query: `DELETE FROM payments WHERE invoice_id IN (SELECT id FROM invoices WHERE tenant_id = ?)`},
			{Entity: "invoice_items", Query: `DELETE FROM invoice_items WHERE invoice_id IN (SELECT id FROM invoices WHERE tenant_id = ?)`},
			{Entity: "invoices", Query: `DELETE FROM invoices WHERE tenant_id = ?`},
			{Entity: "payroll_entries", Query: `DELETE FROM payroll_entries WHERE tenant_id = ?`},
			{Entity: "pay_rates", Query: `DELETE FROM pay_rates WHERE tenant_id = ?`},
		},
	},
	{
		Name: "retail",
		Steps: []Step{
			{Entity: "inventory_adjustments", Query: `DELETE FROM inventory_adjustments WHERE purchase_order_id IN (SELECT id FROM purchase_orders WHERE tenant_id = ?)`},
			{Entity: "purchase_order_items", Query: `DELETE FROM purchase_order_items WHERE purchase_order_id IN (SELECT id FROM purchase_orders WHERE tenant_id = ?)`},
			{Entity: "purchase_orders", Query: `DELETE FROM purchase_orders WHERE tenant_id = ?`},
			{Entity: "products", Query: `DELETE FROM products WHERE tenant_id = ?`},
		},
	},
	{
		Name: "scheduling",
		Steps: []Step{
			{Entity: "bookings", Query: `DELETE FROM bookings WHERE class_id IN (SELECT id FROM classes WHERE tenant_id = ?)`},
			{Entity: "waitlist_entries", Query: `DELETE FROM waitlist_entries WHERE class_id IN (SELECT id FROM classes WHERE tenant_id = ?)`},
			{Entity: "classes", Query: `DELETE FROM classes WHERE tenant_id = ?`},
			{Entity: "class_templates", Query: `DELETE FROM class_templates WHERE tenant_id = ?`},
			{Entity: "rooms", Query: `DELETE FROM rooms WHERE tenant_id = ?`},
		},
	},
	{
		Name: "media",
		Steps: []Step{
			{Entity: "media_assets", Query: `DELETE FROM media_assets WHERE tenant_id = ?`},
			{Entity: "brand_settings", Query: `DELETE FROM brand_settings WHERE tenant_id = ?`},
		},
	},
	{
		Name: "site",
		Steps: []Step{
			{Entity: "site_pages", Query: `DELETE FROM site_pages WHERE tenant_id = ?`},
			{Entity: "integrations", Query: `DELETE FROM integrations WHERE tenant_id = ?`},
			{Entity: "tenant_quotas", Query: `DELETE FROM tenant_quotas WHERE tenant_id = ?`},
		},
	},
	{
		Name: "communications",
		Steps: []Step{
			{Entity: "chat_messages", Query: `DELETE FROM chat_messages WHERE channel_id IN (SELECT id FROM chat_channels WHERE tenant_id = ?)`},
			{Entity: "chat_channels", Query: `DELETE FROM chat_channels WHERE tenant_id = ?`},
			{Entity: "announcements", Query: `DELETE FROM announcements WHERE tenant_id = ?`},
		},
	},
	{
		Name: "members",
		Steps: []Step{
			{Entity: "staff_roles", Query: `DELETE FROM staff_roles WHERE tenant_id = ?`},
			{Entity: "invitations", Query: `DELETE FROM invitations WHERE tenant_id = ?`},
			{Entity: "memberships", Query: `DELETE FROM memberships WHERE tenant_id = ?`},
		},
	},
}

// dependencies records every child → parent reference among catalog
// entities. The catalog test walks this map to prove no parent is deleted
// before its children.
var dependencies = map[string]string{
	"comments":              "posts",
	"reactions":             "posts",
	"campaign_sends":        "campaigns",
	"payments":              "invoices",
	"invoice_items":         "invoices",
	"inventory_adjustments": "purchase_orders",
	"purchase_order_items":  "purchase_orders",
	"bookings":              "classes",
	"waitlist_entries":      "classes",
	"chat_messages":         "chat_channels",
}
