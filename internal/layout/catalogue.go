package layout

// run places count consecutive 1x1 slots of one kind, starting at (row, col)
// and advancing by step grid units down (vertical) or right.
type run struct {
	kind     SlotKind
	row, col float64
	count    int
	vertical bool
	step     float64
}

type centerCell struct {
	row, col         float64
	rowSpan, colSpan int
}

type entry struct {
	columns, rows int
	center        centerCell
	runs          []run
}

// catalogue holds the hand-authored arrangements keyed by member count. Each
// entry has exactly size-1 border slots. Adding a size only needs a new entry.
var catalogue = map[int]entry{
	12: {
		columns: 4, rows: 4,
		center: centerCell{row: 1, col: 1, rowSpan: 2, colSpan: 2},
		runs: []run{
			{kind: KindTop, row: 0, col: 0.5, count: 3},
			{kind: KindLeft, row: 1, col: 0, count: 2, vertical: true},
			{kind: KindRight, row: 1, col: 3, count: 2, vertical: true},
			{kind: KindBottom, row: 3, col: 0, count: 4},
		},
	},
	18: {
		columns: 5, rows: 6,
		center: centerCell{row: 1, col: 1, rowSpan: 4, colSpan: 3},
		runs: []run{
			{kind: KindTop, row: 0, col: 0, count: 5},
			{kind: KindLeft, row: 1, col: 0, count: 4, vertical: true},
			{kind: KindRight, row: 1, col: 4, count: 4, vertical: true},
			{kind: KindBottom, row: 5, col: 0.5, count: 4},
		},
	},
	19: {
		columns: 6, rows: 7,
		// the center is 5 rows tall; it also spans the 4 inner columns
		center: centerCell{row: 1, col: 1, rowSpan: 5, colSpan: 4},
		runs: []run{
			{kind: KindTop, row: 0, col: 0, count: 6},
			{kind: KindLeft, row: 1.5, col: 0, count: 3, vertical: true, step: 1.5},
			{kind: KindRight, row: 1.5, col: 5, count: 3, vertical: true, step: 1.5},
			{kind: KindBottom, row: 6, col: 0, count: 6},
		},
	},
	20: {
		columns: 6, rows: 8,
		center: centerCell{row: 1, col: 1, rowSpan: 5, colSpan: 4},
		runs: []run{
			{kind: KindTop, row: 0, col: 0, count: 6},
			{kind: KindLeft, row: 1.5, col: 0, count: 3, vertical: true, step: 1.5},
			{kind: KindRight, row: 1.5, col: 5, count: 3, vertical: true, step: 1.5},
			{kind: KindBottom, row: 6, col: 0, count: 6},
			{kind: KindBottomExt, row: 7, col: 2.5, count: 1},
		},
	},
	33: {
		columns: 10, rows: 9,
		center: centerCell{row: 1, col: 1, rowSpan: 7, colSpan: 8},
		runs: []run{
			{kind: KindTop, row: 0, col: 0, count: 10},
			{kind: KindLeft, row: 1.5, col: 0, count: 6, vertical: true},
			{kind: KindRight, row: 1.5, col: 9, count: 6, vertical: true},
			{kind: KindBottom, row: 8, col: 0, count: 10},
		},
	},
	45: {
		columns: 12, rows: 12,
		center: centerCell{row: 1, col: 1, rowSpan: 10, colSpan: 10},
		runs: []run{
			{kind: KindTop, row: 0, col: 0, count: 12},
			{kind: KindLeft, row: 1, col: 0, count: 10, vertical: true},
			{kind: KindRight, row: 1, col: 11, count: 10, vertical: true},
			{kind: KindBottom, row: 11, col: 0, count: 12},
		},
	},
}
