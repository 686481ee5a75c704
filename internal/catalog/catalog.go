package catalog

import "fmt"

// Condition is one row of the catalog. Symptoms is indexed by the owning
// Catalog's symptom columns, Risks by RiskAttributes.
type Condition struct {
	Name        string
	Description string
	Treatment   string
	Symptoms    Bitset
	Risks       Bitset
}

// SymptomTotal is the number of symptoms the condition presents.
func (c *Condition) SymptomTotal() int {
	return c.Symptoms.Count()
}

// Catalog is the immutable set of conditions over a fixed symptom vocabulary.
// It is built once and shared read-only between sessions.
type Catalog struct {
	symptoms   []string
	index      map[string]int
	conditions []Condition
}

func (c *Catalog) Symptoms() []string {
	return c.symptoms
}

// SymptomIndex returns the column position of a symptom.
func (c *Catalog) SymptomIndex(symptom string) (int, bool) {
	i, ok := c.index[symptom]
	return i, ok
}

func (c *Catalog) HasSymptom(symptom string) bool {
	_, ok := c.index[symptom]
	return ok
}

func (c *Catalog) Conditions() []Condition {
	return c.conditions
}

func (c *Catalog) Len() int {
	return len(c.conditions)
}

// Vector is a patient's attribute values laid out like a Condition.
type Vector struct {
	Symptoms Bitset
	Risks    Bitset
}

// Vector projects an attribute→0/1 mapping onto the catalog columns.
// Names unknown to the catalog are ignored.
func (c *Catalog) Vector(values map[string]int) Vector {
	v := Vector{Symptoms: NewBitset(len(c.symptoms)), Risks: NewBitset(len(RiskAttributes))}
	for name, val := range values {
		if val != 1 {
			continue
		}
		if i, ok := c.index[name]; ok {
			v.Symptoms.Set(i)
			continue
		}
		if i, ok := riskIndex(name); ok {
			v.Risks.Set(i)
		}
	}
	return v
}

// Builder assembles a Catalog row by row.
type Builder struct {
	symptoms   []string
	index      map[string]int
	conditions []Condition
	err        error
}

func NewBuilder(symptoms []string) *Builder {
	b := &Builder{index: make(map[string]int, len(symptoms))}
	for _, s := range symptoms {
		if _, dup := b.index[s]; dup {
			b.err = fmt.Errorf("duplicate symptom column %q", s)
			continue
		}
		if IsRisk(s) {
			b.err = fmt.Errorf("column %q is a risk attribute, not a symptom", s)
			continue
		}
		b.index[s] = len(b.symptoms)
		b.symptoms = append(b.symptoms, s)
	}
	return b
}

// Add appends a condition presenting the given symptoms and risk attributes.
func (b *Builder) Add(name, description, treatment string, symptoms, risks []string) *Builder {
	if b.err != nil {
		return b
	}
	c := Condition{
		Name:        name,
		Description: description,
		Treatment:   treatment,
		Symptoms:    NewBitset(len(b.symptoms)),
		Risks:       NewBitset(len(RiskAttributes)),
	}
	for _, s := range symptoms {
		i, ok := b.index[s]
		if !ok {
			b.err = fmt.Errorf("condition %q: unknown symptom %q", name, s)
			return b
		}
		c.Symptoms.Set(i)
	}
	for _, r := range risks {
		i, ok := riskIndex(r)
		if !ok {
			b.err = fmt.Errorf("condition %q: unknown risk attribute %q", name, r)
			return b
		}
		c.Risks.Set(i)
	}
	b.conditions = append(b.conditions, c)
	return b
}

func (b *Builder) Build() (*Catalog, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.symptoms) == 0 {
		return nil, fmt.Errorf("catalog has no symptom columns")
	}
	return &Catalog{
		symptoms:   b.symptoms,
		index:      b.index,
		conditions: b.conditions,
	}, nil
}
