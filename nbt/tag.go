package nbt

// Tag is a node of an NBT tree. The set of implementations is closed: one pointer type per Kind
// (except End, which only exists on the wire).
//
// Tags stored inside a List are unnamed; their Name field is ignored on encode and left empty on
// decode.
type Tag interface {
	Kind() Kind
	TagName() string
	String() string
	tag()
}

type Byte struct {
	Name  string
	Value int8
}

type Short struct {
	Name  string
	Value int16
}

type Int struct {
	Name  string
	Value int32
}

type Long struct {
	Name  string
	Value int64
}

type Float struct {
	Name  string
	Value float32
}

type Double struct {
	Name  string
	Value float64
}

type ByteArray struct {
	Name  string
	Value []int8
}

type String struct {
	Name  string
	Value string
}

type IntArray struct {
	Name  string
	Value []int32
}

type LongArray struct {
	Name  string
	Value []int64
}

// List is an ordered sequence of unnamed tags. ContentKind decides how every element is read and
// is written verbatim; nothing checks that the elements actually are of that kind.
type List struct {
	Name        string
	ContentKind Kind
	Value       []Tag
}

// Compound is an ordered sequence of named tags. Names are not required to be unique; lookups
// return the first match.
type Compound struct {
	Name  string
	Value []Tag
}

func (*Byte) Kind() Kind      { return KindByte }
func (*Short) Kind() Kind     { return KindShort }
func (*Int) Kind() Kind       { return KindInt }
func (*Long) Kind() Kind      { return KindLong }
func (*Float) Kind() Kind     { return KindFloat }
func (*Double) Kind() Kind    { return KindDouble }
func (*ByteArray) Kind() Kind { return KindByteArray }
func (*String) Kind() Kind    { return KindString }
func (*IntArray) Kind() Kind  { return KindIntArray }
func (*LongArray) Kind() Kind { return KindLongArray }
func (*List) Kind() Kind      { return KindList }
func (*Compound) Kind() Kind  { return KindCompound }

func (t *Byte) TagName() string      { return t.Name }
func (t *Short) TagName() string     { return t.Name }
func (t *Int) TagName() string       { return t.Name }
func (t *Long) TagName() string      { return t.Name }
func (t *Float) TagName() string     { return t.Name }
func (t *Double) TagName() string    { return t.Name }
func (t *ByteArray) TagName() string { return t.Name }
func (t *String) TagName() string    { return t.Name }
func (t *IntArray) TagName() string  { return t.Name }
func (t *LongArray) TagName() string { return t.Name }
func (t *List) TagName() string      { return t.Name }
func (t *Compound) TagName() string  { return t.Name }

func (*Byte) tag()      {}
func (*Short) tag()     {}
func (*Int) tag()       {}
func (*Long) tag()      {}
func (*Float) tag()     {}
func (*Double) tag()    {}
func (*ByteArray) tag() {}
func (*String) tag()    {}
func (*IntArray) tag()  {}
func (*LongArray) tag() {}
func (*List) tag()      {}
func (*Compound) tag()  {}

// IsNil reports whether t is nil or a nil pointer of one of the tag types.
func IsNil(t Tag) bool {
	switch t := t.(type) {
	case nil:
		return true
	case *Byte:
		return t == nil
	case *Short:
		return t == nil
	case *Int:
		return t == nil
	case *Long:
		return t == nil
	case *Float:
		return t == nil
	case *Double:
		return t == nil
	case *ByteArray:
		return t == nil
	case *String:
		return t == nil
	case *IntArray:
		return t == nil
	case *LongArray:
		return t == nil
	case *List:
		return t == nil
	case *Compound:
		return t == nil
	}
	return false
}

// NewCompound creates a compound holding tags in the given order.
func NewCompound(name string, tags ...Tag) *Compound {
	return &Compound{Name: name, Value: tags}
}

// NewList creates a list of the given content kind.
func NewList(name string, contentKind Kind, elements ...Tag) *List {
	return &List{Name: name, ContentKind: contentKind, Value: elements}
}

// Get returns the first member named name, or nil. Nil members are skipped.
func (c *Compound) Get(name string) Tag {
	for _, t := range c.Value {
		if !IsNil(t) && t.TagName() == name {
			return t
		}
	}
	return nil
}

// Find returns the first member of c that is named name and has the concrete type T. Members
// with the same name but another type are skipped.
func Find[T Tag](c *Compound, name string) (found T, ok bool) {
	for _, t := range c.Value {
		if IsNil(t) || t.TagName() != name {
			continue
		}
		if found, ok = t.(T); ok {
			return
		}
	}
	return found, false
}

// Add appends a member, even when one with the same name exists.
func (c *Compound) Add(t Tag) {
	c.Value = append(c.Value, t)
}

// Set replaces the first member with the same name as t, or appends t. A nil t is ignored.
func (c *Compound) Set(t Tag) {
	if IsNil(t) {
		return
	}
	for i, existing := range c.Value {
		if !IsNil(existing) && existing.TagName() == t.TagName() {
			c.Value[i] = t
			return
		}
	}
	c.Value = append(c.Value, t)
}

// Remove deletes the first member named name and reports whether one was found.
func (c *Compound) Remove(name string) bool {
	for i, t := range c.Value {
		if !IsNil(t) && t.TagName() == name {
			c.Value = append(c.Value[:i], c.Value[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Compound) Len() int { return len(c.Value) }

// Add appends an element to the list without checking its kind.
func (l *List) Add(t Tag) {
	l.Value = append(l.Value, t)
}

func (l *List) Len() int { return len(l.Value) }
