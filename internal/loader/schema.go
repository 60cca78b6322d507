package loader

// Kind identifies the coercion applied to a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Column declares one column of a source file. MaxLen bounds text columns;
// zero means unbounded.
type Column struct {
	Name   string
	Kind   Kind
	MaxLen int
}

// Schema declares the column order of a source file for one entity.
type Schema struct {
	Entity  string
	Columns []Column
}

// Entity schemas, in the declared column order of the USDA source files.
var (
	FoodSchema = Schema{
		Entity: "food",
		Columns: []Column{
			{Name: "fdc_id", Kind: KindInt},
			{Name: "data_type", Kind: KindText, MaxLen: 50},
			{Name: "description", Kind: KindText, MaxLen: 500},
			{Name: "food_category_id", Kind: KindText, MaxLen: 100},
			{Name: "publication_date", Kind: KindText, MaxLen: 20},
		},
	}

	NutrientSchema = Schema{
		Entity: "nutrient",
		Columns: []Column{
			{Name: "id", Kind: KindInt},
			{Name: "name", Kind: KindText, MaxLen: 200},
			{Name: "unit_name", Kind: KindText, MaxLen: 20},
			{Name: "nutrient_nbr", Kind: KindText, MaxLen: 20},
			{Name: "rank", Kind: KindFloat},
		},
	}

	FoodCategorySchema = Schema{
		Entity: "food_category",
		Columns: []Column{
			{Name: "id", Kind: KindInt},
			{Name: "code", Kind: KindText, MaxLen: 20},
			{Name: "description", Kind: KindText, MaxLen: 200},
		},
	}

	MeasureUnitSchema = Schema{
		Entity: "measure_unit",
		Columns: []Column{
			{Name: "id", Kind: KindInt},
			{Name: "name", Kind: KindText, MaxLen: 100},
		},
	}

	FoodNutrientSchema = Schema{
		Entity: "food_nutrient",
		Columns: []Column{
			{Name: "id", Kind: KindInt},
			{Name: "fdc_id", Kind: KindInt},
			{Name: "nutrient_id", Kind: KindInt},
			{Name: "amount", Kind: KindFloat},
			{Name: "data_points", Kind: KindInt},
			{Name: "derivation_id", Kind: KindInt},
			{Name: "min", Kind: KindFloat},
			{Name: "max", Kind: KindFloat},
			{Name: "median", Kind: KindFloat},
			{Name: "footnote", Kind: KindText, MaxLen: 500},
			{Name: "min_year_acquired", Kind: KindInt},
			{Name: "percent_daily_value", Kind: KindFloat},
		},
	}

	FoodPortionSchema = Schema{
		Entity: "food_portion",
		Columns: []Column{
			{Name: "id", Kind: KindInt},
			{Name: "fdc_id", Kind: KindInt},
			{Name: "seq_num", Kind: KindInt},
			{Name: "amount", Kind: KindFloat},
			{Name: "measure_unit_id", Kind: KindInt},
			{Name: "portion_description", Kind: KindText, MaxLen: 200},
			{Name: "modifier", Kind: KindText, MaxLen: 200},
			{Name: "gram_weight", Kind: KindFloat},
			{Name: "data_points", Kind: KindInt},
			{Name: "footnote", Kind: KindText, MaxLen: 500},
			{Name: "min_year_acquired", Kind: KindInt},
		},
	}
)
