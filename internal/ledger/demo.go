package ledger

import "splitledger/internal/core"

// DemoRecords is a small illustrative household dataset. Ids are left
// empty and assigned when loaded with WithRecords.
func DemoRecords() []core.Record {
	return []core.Record{
		{Item: "Mattress", Category: core.CategoryFurniture, Priority: core.PriorityVeryHigh,
			BudgetDate: core.NewDate(2025, 7, 25), CreatedBy: core.PersonA},
		{Item: "Washing Machine", Category: core.CategoryOther, Total: 5743, ShareA: 5743,
			Priority: core.PriorityVeryHigh, BudgetDate: core.NewDate(2025, 7, 25), CreatedBy: core.PersonA},
		{Item: "Humidifier", Category: core.CategoryOther, Total: 4500, ShareA: 2250, ShareB: 2250,
			Priority: core.PriorityVeryHigh, BudgetDate: core.NewDate(2025, 8, 25), CreatedBy: core.PersonB},
		{Item: "Couch", Category: core.CategoryFurniture, Priority: core.PriorityVeryHigh,
			BudgetDate: core.NewDate(2025, 7, 25), CreatedBy: core.PersonB},
		{Item: "bedroom lights", Category: core.CategoryFurniture, Total: 200, ShareA: 100, ShareB: 100,
			Priority: core.PriorityMedium, BudgetDate: core.NewDate(2025, 8, 25), CreatedBy: core.PersonA},
		{Item: "Rent", Category: core.CategoryRent, Total: 12000, ShareA: 6000, ShareB: 6000,
			Priority: core.PriorityHigh, BudgetDate: core.NewDate(2025, 8, 1), Recurring: true, CreatedBy: core.PersonB},
		{Item: "Weekly groceries", Category: core.CategoryGroceries, Total: 850, ShareA: 425, ShareB: 425,
			Priority: core.PriorityMedium, BudgetDate: core.NewDate(2025, 8, 9), Recurring: true, CreatedBy: core.PersonA},
	}
}
