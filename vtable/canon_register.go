package vtable

func registerCanonicalVTables(c *Context) {
	c.Register(nullVTable{})
	c.Register(boolVTable{})
	c.Register(primitiveVTable{})
	c.Register(varBinViewVTable{})
	c.Register(structVTable{})
	c.Register(listVTable{})
	c.Register(extensionVTable{})
}
