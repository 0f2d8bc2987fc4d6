package format

// defaultRegistry is the process-wide registry that built-in backends
// register into from their package init. Importing a backend package for
// side effects is enough to make it resolvable, mirroring how database
// drivers register themselves.
var defaultRegistry = NewRegistry()

// Register adds a backend to the default registry.
func Register(descriptor Descriptor, constructor Constructor) {
	defaultRegistry.Register(descriptor, constructor)
}

// Resolve resolves against the default registry.
func Resolve(filename string, mode Mode) (Constructor, error) {
	return defaultRegistry.Resolve(filename, mode)
}

// Descriptors lists the default registry's descriptors in registration
// order.
func Descriptors() []Descriptor {
	return defaultRegistry.Descriptors()
}
