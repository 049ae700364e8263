package domain

// Column identifies one of the three fixed board lanes.
type Column string

const (
	ColumnTodo  Column = "todo"
	ColumnDoing Column = "doing"
	ColumnDone  Column = "done"
)

// Columns lists the lanes in display order.
var Columns = []Column{ColumnTodo, ColumnDoing, ColumnDone}

// Valid reports whether c is one of the three board lanes.
func (c Column) Valid() bool {
	switch c {
	case ColumnTodo, ColumnDoing, ColumnDone:
		return true
	}
	return false
}

// Card represents a single board item.
type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	Column   Column `json:"column"`
	Position int    `json:"position"`
}

// CardUpdate carries a partial update for a card. Nil fields are left
// untouched by the merge.
type CardUpdate struct {
	Title    *string
	Content  *string
	Column   *Column
	Position *int
}

// Board is an ordered snapshot of the three lanes.
type Board struct {
	Todo  []Card `json:"todo"`
	Doing []Card `json:"doing"`
	Done  []Card `json:"done"`
}

// Slot addresses a place on the board by lane and zero-based index.
type Slot struct {
	Column Column `json:"column"`
	Index  int    `json:"index"`
}

// MoveRequest describes a drag-and-drop drop event. ID names the card the
// client believes sits at From; a mismatch means the board changed under it.
type MoveRequest struct {
	ID   string `json:"id"`
	From Slot   `json:"from"`
	To   Slot   `json:"to"`
}

// Reindex returns a copy of list with every card assigned to columnID and
// Position set to its index. Order is preserved and the input is never
// mutated.
func Reindex(list []Card, columnID Column) []Card {
	out := make([]Card, len(list))
	for i, c := range list {
		c.Column = columnID
		c.Position = i
		out[i] = c
	}
	return out
}

// GroupByColumn splits cards into the three lanes, preserving input order.
// Cards carrying an unknown column are dropped.
func GroupByColumn(cards []Card) Board {
	b := Board{Todo: []Card{}, Doing: []Card{}, Done: []Card{}}
	for _, c := range cards {
		switch c.Column {
		case ColumnTodo:
			b.Todo = append(b.Todo, c)
		case ColumnDoing:
			b.Doing = append(b.Doing, c)
		case ColumnDone:
			b.Done = append(b.Done, c)
		}
	}
	return b
}
