package core

// DefaultBudget describes a budget created by the setup endpoint.
type DefaultBudget struct {
	Category string
	Limit    float64
	Color    string
}

// DefaultBudgets is the fixed category list seeded by setup.
var DefaultBudgets = []DefaultBudget{
	{Category: "Food", Limit: 500, Color: "#f97316"},
	{Category: "Transport", Limit: 200, Color: "#3b82f6"},
	{Category: "Shopping", Limit: 300, Color: "#ec4899"},
	{Category: "Entertainment", Limit: 150, Color: "#8b5cf6"},
	{Category: "Bills", Limit: 800, Color: "#ef4444"},
	{Category: "Health", Limit: 200, Color: "#10b981"},
	{Category: "Education", Limit: 100, Color: "#eab308"},
	{Category: "Other", Limit: 100, Color: "#6b7280"},
}
