package raw

// Type ids as they appear in encoded immediates and array entries.
const (
	IDInt            uint8 = 1
	IDFloat          uint8 = 2
	IDDouble         uint8 = 3
	IDByte           uint8 = 4
	IDBool           uint8 = 5
	IDString         uint8 = 6
	IDChar           uint8 = 7
	IDVoid           uint8 = 8
	IDArray          uint8 = 9
	IDNull           uint8 = 10
	IDClass          uint8 = 11
	IDFunction       uint8 = 12
	IDStackReference uint8 = 13
	IDHeapReference  uint8 = 14
	IDStaticArray    uint8 = 15
)

// TypeID tags a value. Size is the logical payload length in bytes and is
// informational only: two TypeIDs are equal when their ids match.
type TypeID struct {
	ID   uint8
	Size int
}

var typeNames = [...]string{
	IDInt:            "int",
	IDFloat:          "float",
	IDDouble:         "double",
	IDByte:           "byte",
	IDBool:           "bool",
	IDString:         "string",
	IDChar:           "char",
	IDVoid:           "void",
	IDArray:          "array",
	IDNull:           "null",
	IDClass:          "class",
	IDFunction:       "function",
	IDStackReference: "stackReference",
	IDHeapReference:  "heapReference",
	IDStaticArray:    "staticArray",
}

// staticSizes holds the payload width of every stack-storable type.
var staticSizes = [...]int{
	IDInt:            8,
	IDFloat:          4,
	IDDouble:         8,
	IDByte:           1,
	IDBool:           1,
	IDChar:           4,
	IDVoid:           0,
	IDNull:           0,
	IDFunction:       8,
	IDStackReference: 8,
	IDHeapReference:  8,
	IDStaticArray:    8,
	IDClass:          8,
}

// TypeOf returns the TypeID for id with its default static size.
func TypeOf(id uint8) TypeID {
	t := TypeID{ID: id}
	if int(id) < len(staticSizes) {
		t.Size = staticSizes[id]
	}
	return t
}

// ValidID reports whether id names a known type.
func ValidID(id uint8) bool {
	return id >= IDInt && id <= IDStaticArray
}

// TypeName returns the display name of a type id.
func TypeName(id uint8) string {
	if ValidID(id) {
		return typeNames[id]
	}
	return "unknown"
}

// Equal compares ids only.
func (t TypeID) Equal(o TypeID) bool { return t.ID == o.ID }

func (t TypeID) String() string { return TypeName(t.ID) }

func (t TypeID) IsInt() bool            { return t.ID == IDInt }
func (t TypeID) IsFloat() bool          { return t.ID == IDFloat }
func (t TypeID) IsDouble() bool         { return t.ID == IDDouble }
func (t TypeID) IsByte() bool           { return t.ID == IDByte }
func (t TypeID) IsBool() bool           { return t.ID == IDBool }
func (t TypeID) IsString() bool         { return t.ID == IDString }
func (t TypeID) IsChar() bool           { return t.ID == IDChar }
func (t TypeID) IsVoid() bool           { return t.ID == IDVoid }
func (t TypeID) IsArray() bool          { return t.ID == IDArray }
func (t TypeID) IsNull() bool           { return t.ID == IDNull }
func (t TypeID) IsClass() bool          { return t.ID == IDClass }
func (t TypeID) IsFunction() bool       { return t.ID == IDFunction }
func (t TypeID) IsStackReference() bool { return t.ID == IDStackReference }
func (t TypeID) IsHeapReference() bool  { return t.ID == IDHeapReference }
func (t TypeID) IsStaticArray() bool    { return t.ID == IDStaticArray }

// IsReference reports whether the value points at another memory cell.
func (t TypeID) IsReference() bool {
	return t.ID == IDStackReference || t.ID == IDHeapReference
}

// IsNumeric reports whether arithmetic and ordering apply to the type.
func (t TypeID) IsNumeric() bool {
	switch t.ID {
	case IDInt, IDFloat, IDDouble, IDByte:
		return true
	}
	return false
}

// IsStackStorable reports whether a value of this type fits inline in a
// register or stack cell. Strings, arrays and class instances live on the heap.
func (t TypeID) IsStackStorable() bool {
	if !ValidID(t.ID) {
		return false
	}
	switch t.ID {
	case IDString, IDArray, IDClass:
		return false
	}
	return true
}
