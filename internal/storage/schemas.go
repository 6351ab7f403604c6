package storage

var (
	transactionsSchema = Schema{
		Name: "transactions", Resource: "transaction", Key: "id", AutoKey: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "name"},
			{Name: "category"},
			{Name: "date"},
			{Name: "amount", Kind: Float},
			{Name: "type"},
			{Name: "icon"},
		},
	}

	budgetsSchema = Schema{
		Name: "budgets", Resource: "budget", Key: "category",
		Columns: []Column{
			{Name: "category"},
			{Name: "limit", Kind: Float},
			{Name: "color"},
		},
	}

	cardsSchema = Schema{
		Name: "cards", Resource: "card", Key: "id", AutoKey: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "bank_name"},
			{Name: "holder"},
			{Name: "balance", Kind: Float},
			{Name: "limit", Kind: Float, Nullable: true},
			{Name: "type"},
			{Name: "number"},
			{Name: "expiry"},
			{Name: "pin"},
			{Name: "color"},
			{Name: "is_frozen", Kind: Bool},
		},
	}

	installmentsSchema = Schema{
		Name: "installments", Resource: "installment", Key: "id", AutoKey: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "name"},
			{Name: "provider"},
			{Name: "total_amount", Kind: Float},
			{Name: "paid_amount", Kind: Float},
			{Name: "total_months", Kind: Int},
			{Name: "paid_months", Kind: Int},
			{Name: "start_date"},
			{Name: "category"},
		},
	}

	tasksSchema = Schema{
		Name: "tasks", Resource: "task", Key: "id", AutoKey: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "title"},
			{Name: "category"},
			{Name: "priority"},
			{Name: "due_date"},
			{Name: "completed", Kind: Bool},
			{Name: "status"},
			{Name: "subtasks", Kind: JSON},
			{Name: "notes"},
		},
	}

	categoriesSchema = Schema{
		Name: "categories", Resource: "category", Key: "id", AutoKey: true, Scoped: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "name"},
			{Name: "type"},
			{Name: "icon"},
			{Name: "color"},
			{Name: "budgeting_enabled", Kind: Bool},
		},
	}

	taskCategoriesSchema = Schema{
		Name: "task_categories", Resource: "task category", Key: "id", AutoKey: true, Scoped: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "name"},
			{Name: "color"},
			{Name: "icon"},
		},
	}

	habitsSchema = Schema{
		Name: "habits", Resource: "habit", Key: "id", AutoKey: true, Scoped: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "title"},
			{Name: "description"},
			{Name: "icon"},
			{Name: "start_date"},
			{Name: "active_from_date", Nullable: true},
			{Name: "archived_at", Nullable: true},
			{Name: "frequency"},
			{Name: "goal_target", Kind: Float},
		},
	}

	habitLogsSchema = Schema{
		Name: "habit_logs", Resource: "habit log", Key: "id", AutoKey: true, Scoped: true,
		Columns: []Column{
			{Name: "id", Kind: Int},
			{Name: "habit_id", Kind: Int},
			{Name: "date"},
			{Name: "completed_value", Kind: Float},
		},
	}
)
