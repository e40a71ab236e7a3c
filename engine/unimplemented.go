package engine

var _ Session = UnimplementedSession{}

// UnimplementedSession returns ErrUnsupported from every operation. Embed
// it in a Session implementation to inherit defaults for the operations
// the backend lacks.
type UnimplementedSession struct{}

func (UnimplementedSession) ID() string                      { return "" }
func (UnimplementedSession) SetNumber(string, float64) error { return ErrUnsupported }
func (UnimplementedSession) Tetrahedralize([]float64) ([]int64, error) {
	return nil, ErrUnsupported
}
func (UnimplementedSession) Triangulate([]float64) ([]int64, error) { return nil, ErrUnsupported }
func (UnimplementedSession) AddDiscreteEntity(int, int, []int) (int, error) {
	return 0, ErrUnsupported
}
func (UnimplementedSession) AddNodes(int, int, []int64, []float64) error { return ErrUnsupported }
func (UnimplementedSession) AddElements(int, int, []ElementBlock) error  { return ErrUnsupported }
func (UnimplementedSession) CreateTopology(bool, bool) error             { return ErrUnsupported }
func (UnimplementedSession) ClassifySurfaces(float64, bool, bool, float64, bool) error {
	return ErrUnsupported
}
func (UnimplementedSession) CreateGeometry() error             { return ErrUnsupported }
func (UnimplementedSession) Entities(int) ([]DimTag, error)    { return nil, ErrUnsupported }
func (UnimplementedSession) AddSurfaceLoop([]int) (int, error) { return 0, ErrUnsupported }
func (UnimplementedSession) AddVolume([]int) (int, error)      { return 0, ErrUnsupported }
func (UnimplementedSession) Synchronize() error                { return ErrUnsupported }
func (UnimplementedSession) Generate(int) error                { return ErrUnsupported }
func (UnimplementedSession) Boundary([]DimTag, bool, bool, bool) ([]DimTag, error) {
	return nil, ErrUnsupported
}
func (UnimplementedSession) Nodes(int, int, bool) (Nodes, error)       { return Nodes{}, ErrUnsupported }
func (UnimplementedSession) Elements(int, int) ([]ElementBlock, error) { return nil, ErrUnsupported }
func (UnimplementedSession) AddPhysicalGroup(int, []int, string) (int, error) {
	return 0, ErrUnsupported
}
func (UnimplementedSession) PhysicalGroupEntities(int, int) ([]int, error) {
	return nil, ErrUnsupported
}
func (UnimplementedSession) LastError() string { return "" }
func (UnimplementedSession) Logs() []string    { return nil }
func (UnimplementedSession) Close() error      { return nil }
