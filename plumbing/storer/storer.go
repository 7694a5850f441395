package storer

// Storer is a generic storage of objects, references and
// configuration.
type Storer interface {
	EncodedObjectStorer
	ReferenceStorer
}

// Initializer is implemented by storers that need an explicit step to
// create their on-disk layout before first use (e.g. a filesystem
// storer creating the ".git" directory skeleton).
type Initializer interface {
	Init() error
}
