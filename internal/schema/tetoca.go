package schema

// TeToca returns the descriptors of every TeToca table, in dependency
// order. Table and column names follow the deployed database: snake_case
// plural Spanish nouns.
func TeToca() *Registry {
	reg, err := NewRegistry(
		Provincias, Municipios, Cadenas, Roles, Usuarios, Tiendas, Oficinas,
		Bodegas, Nucleos, Consumidores, Oficodas, Responsables, Categorias,
		Productos, Ciclos, Estados, Ofertas, Subofertas, Compras,
	)
	if err != nil {
		// the registry is static; a failure here is a programming error
		panic(err)
	}
	return reg
}

var Provincias = &Descriptor{
	Table: "provincias",
	Key:   "id_provincia",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "siglas", Type: Text, Nullable: true, Unique: true},
		{Name: "ubicacion", Type: Text, Nullable: true},
		{Name: "desac", Type: Bool, Default: "false"},
	},
	Relations: []Relation{
		{Name: "municipio", Aggregate: "municipios", Kind: HasMany, Table: "municipios", FK: "id_provincia"},
	},
	Toggles: []string{"desac"},
}

var Municipios = &Descriptor{
	Table: "municipios",
	Key:   "id_municipio",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "siglas", Type: Text, Nullable: true},
		{Name: "ubicacion", Type: Text, Nullable: true},
		{Name: "desac", Type: Bool, Default: "false"},
		{Name: "id_provincia", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "provincia", Aggregate: "provincia", Kind: BelongsTo, Table: "provincias", FK: "id_provincia"},
		{Name: "tienda", Aggregate: "tiendas", Kind: HasMany, Table: "tiendas", FK: "id_municipio"},
		{Name: "oficina", Aggregate: "oficinas", Kind: HasMany, Table: "oficinas", FK: "id_municipio"},
	},
	Uniques: []Unique{{Name: "u_nombre_provincia", Columns: []string{"nombre", "id_provincia"}}},
	Toggles: []string{"desac"},
}

var Cadenas = &Descriptor{
	Table: "cadenas",
	Key:   "id_cadena",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
		{Name: "siglas", Type: Text, Nullable: true},
		{Name: "desac", Type: Bool, Default: "false"},
	},
	Relations: []Relation{
		{Name: "tienda", Aggregate: "tiendas", Kind: HasMany, Table: "tiendas", FK: "id_cadena"},
	},
	Toggles: []string{"desac"},
}

var Roles = &Descriptor{
	Table: "roles",
	Key:   "id_rol",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
	},
	Relations: []Relation{
		{Name: "usuario", Aggregate: "usuarios", Kind: HasMany, Table: "usuarios", FK: "id_rol"},
	},
}

var Usuarios = &Descriptor{
	Table: "usuarios",
	Key:   "id_usuario",
	Fields: []Field{
		{Name: "nom_usuario", Type: Text, Nullable: true, Unique: true, Indexed: true},
		{Name: "hash_clave", Type: Text},
		{Name: "num_cel", Type: Text, Nullable: true, Unique: true, Indexed: true},
		{Name: "ci", Type: Text, Unique: true, Indexed: true},
		{Name: "nombre_completo", Type: Text, Nullable: true, Indexed: true},
		{Name: "dir_postal", Type: Text, Nullable: true},
		{Name: "usuario_ws", Type: Text, Nullable: true},
		{Name: "usuario_te", Type: Text, Nullable: true},
		{Name: "usuario_to", Type: Text, Nullable: true},
		{Name: "dir_correo", Type: Text, Nullable: true},
		{Name: "fecha_creacion", Type: Timestamp, Nullable: true, Default: "now()"},
		// users are pre-seeded disabled and activated through registration
		{Name: "desac", Type: Bool, Default: "true"},
		{Name: "id_rol", Type: Int, Nullable: true, Indexed: true},
	},
	Relations: []Relation{
		{Name: "rol", Aggregate: "rol", Kind: BelongsTo, Table: "roles", FK: "id_rol"},
		{Name: "responsable", Aggregate: "responsables", Kind: HasMany, Table: "responsables", FK: "id_usuario"},
		{Name: "consumidor", Aggregate: "consumidores", Kind: HasMany, Table: "consumidores", FK: "id_usuario"},
		{Name: "oficoda", Aggregate: "oficodas", Kind: HasMany, Table: "oficodas", FK: "id_usuario"},
		{Name: "compra", Aggregate: "compras", Kind: HasMany, Table: "compras", FK: "id_usuario"},
	},
	Toggles: []string{"desac"},
}

var Tiendas = &Descriptor{
	Table: "tiendas",
	Key:   "id_tienda",
	Fields: []Field{
		{Name: "nombre", Type: Text, Indexed: true},
		{Name: "direccion", Type: Text, Nullable: true},
		{Name: "desac", Type: Bool, Default: "false"},
		{Name: "frecuencia_venta", Type: Int, Indexed: true, Default: "0"},
		{Name: "id_municipio", Type: Int, Indexed: true},
		{Name: "id_cadena", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "municipio", Aggregate: "municipio", Kind: BelongsTo, Table: "municipios", FK: "id_municipio"},
		{Name: "cadena", Aggregate: "cadena", Kind: BelongsTo, Table: "cadenas", FK: "id_cadena"},
		{Name: "bodega", Aggregate: "bodegas", Kind: HasMany, Table: "bodegas", FK: "id_tienda"},
		{Name: "responsable", Aggregate: "responsables", Kind: HasMany, Table: "responsables", FK: "id_tienda"},
	},
	Uniques: []Unique{{Name: "u_nombre_municipio_cadena", Columns: []string{"nombre", "id_municipio", "id_cadena"}}},
	Toggles: []string{"desac"},
}

var Oficinas = &Descriptor{
	Table: "oficinas",
	Key:   "id_oficina",
	Fields: []Field{
		{Name: "nombre", Type: Text, Indexed: true},
		{Name: "direccion", Type: Text},
		{Name: "desac", Type: Bool, Default: "false"},
		{Name: "id_municipio", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "municipio", Aggregate: "municipio", Kind: BelongsTo, Table: "municipios", FK: "id_municipio"},
		{Name: "bodega", Aggregate: "bodegas", Kind: HasMany, Table: "bodegas", FK: "id_oficina"},
		{Name: "oficoda", Aggregate: "oficodas", Kind: HasMany, Table: "oficodas", FK: "id_oficina"},
	},
	Uniques: []Unique{{Name: "u_nombre_municipio", Columns: []string{"nombre", "id_municipio"}}},
	Toggles: []string{"desac"},
}

var Bodegas = &Descriptor{
	Table: "bodegas",
	Key:   "id_bodega",
	Fields: []Field{
		{Name: "numero", Type: Text, Indexed: true},
		{Name: "direccion", Type: Text, Nullable: true, Indexed: true},
		{Name: "grupos_rs", Type: Text, Nullable: true},
		{Name: "es_especial", Type: Bool, Indexed: true, Default: "false"},
		{Name: "desac", Type: Bool, Default: "false"},
		{Name: "id_tienda", Type: Int, Nullable: true, Indexed: true},
		{Name: "id_oficina", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "tienda", Aggregate: "tienda", Kind: BelongsTo, Table: "tiendas", FK: "id_tienda"},
		{Name: "oficina", Aggregate: "oficina", Kind: BelongsTo, Table: "oficinas", FK: "id_oficina"},
		{Name: "nucleo", Aggregate: "nucleos", Kind: HasMany, Table: "nucleos", FK: "id_bodega"},
	},
	Uniques: []Unique{{Name: "u_nombre_oficina", Columns: []string{"numero", "id_oficina"}}},
	Toggles: []string{"desac"},
}

var Nucleos = &Descriptor{
	Table: "nucleos",
	Key:   "id_nucleo",
	Fields: []Field{
		{Name: "numero", Type: Text, Indexed: true},
		{Name: "cant_miembros", Type: Int, Indexed: true, Default: "0"},
		{Name: "cant_modulos", Type: Int, Indexed: true, Default: "0"},
		{Name: "desac", Type: Bool, Default: "false"},
		{Name: "id_bodega", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "bodega", Aggregate: "bodega", Kind: BelongsTo, Table: "bodegas", FK: "id_bodega"},
		{Name: "consumidor", Aggregate: "consumidores", Kind: HasMany, Table: "consumidores", FK: "id_nucleo"},
		{Name: "compra", Aggregate: "compras", Kind: HasMany, Table: "compras", FK: "id_nucleo"},
	},
	Uniques: []Unique{{Name: "u_numero_bodega", Columns: []string{"numero", "id_bodega"}}},
	Toggles: []string{"desac"},
}

var Consumidores = &Descriptor{
	Table: "consumidores",
	Key:   "id_consumidor",
	Fields: []Field{
		{Name: "id_usuario", Type: Int, Indexed: true},
		{Name: "id_nucleo", Type: Int, Indexed: true},
		{Name: "fecha_creacion", Type: Timestamp, Nullable: true, Default: "now()"},
		{Name: "verificado", Type: Bool, Default: "false"},
		{Name: "desac", Type: Bool, Default: "false"},
	},
	Relations: []Relation{
		{Name: "usuario", Aggregate: "usuario", Kind: BelongsTo, Table: "usuarios", FK: "id_usuario"},
		{Name: "nucleo", Aggregate: "nucleo", Kind: BelongsTo, Table: "nucleos", FK: "id_nucleo"},
	},
	Uniques: []Unique{{Name: "u_nucleo_usuario", Columns: []string{"id_usuario", "id_nucleo"}}},
	Toggles: []string{"desac"},
}

var Oficodas = &Descriptor{
	Table: "oficodas",
	Key:   "id_oficoda",
	Fields: []Field{
		{Name: "id_usuario", Type: Int, Indexed: true},
		{Name: "id_oficina", Type: Int, Indexed: true},
		{Name: "fecha_creacion", Type: Timestamp, Nullable: true, Default: "now()"},
		{Name: "desac", Type: Bool, Default: "false"},
	},
	Relations: []Relation{
		{Name: "usuario", Aggregate: "usuario", Kind: BelongsTo, Table: "usuarios", FK: "id_usuario"},
		{Name: "oficina", Aggregate: "oficina", Kind: BelongsTo, Table: "oficinas", FK: "id_oficina"},
	},
	Uniques: []Unique{{Name: "u_oficina_usuario", Columns: []string{"id_oficina", "id_usuario"}}},
	Toggles: []string{"desac"},
}

var Responsables = &Descriptor{
	Table: "responsables",
	Key:   "id_responsable",
	Fields: []Field{
		{Name: "id_usuario", Type: Int, Indexed: true},
		{Name: "id_tienda", Type: Int, Indexed: true},
		{Name: "fecha_creacion", Type: Timestamp, Nullable: true, Default: "now()"},
		{Name: "desac", Type: Bool, Default: "false"},
	},
	Relations: []Relation{
		{Name: "usuario", Aggregate: "usuario", Kind: BelongsTo, Table: "usuarios", FK: "id_usuario"},
		{Name: "tienda", Aggregate: "tienda", Kind: BelongsTo, Table: "tiendas", FK: "id_tienda"},
	},
	Uniques: []Unique{{Name: "u_tienda_usuario", Columns: []string{"id_tienda", "id_usuario"}}},
	Toggles: []string{"desac"},
}

var Categorias = &Descriptor{
	Table: "categorias",
	Key:   "id_categoria",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
	},
	Relations: []Relation{
		{Name: "producto", Aggregate: "productos", Kind: HasMany, Table: "productos", FK: "id_categoria"},
	},
}

var Productos = &Descriptor{
	Table: "productos",
	Key:   "id_producto",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
		{Name: "desac", Type: Bool, Default: "false"},
		{Name: "id_categoria", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "categoria", Aggregate: "categoria", Kind: BelongsTo, Table: "categorias", FK: "id_categoria"},
		{Name: "suboferta", Aggregate: "subofertas", Kind: HasMany, Table: "subofertas", FK: "id_producto"},
	},
	Toggles: []string{"desac"},
}

var Ciclos = &Descriptor{
	Table: "ciclos",
	Key:   "id_ciclo",
	Fields: []Field{
		{Name: "nombre", Type: Text, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
		{Name: "fecha_inicio", Type: Date, Nullable: true, Indexed: true, Default: "now()"},
		{Name: "fecha_fin", Type: Date, Nullable: true, Indexed: true},
	},
	Relations: []Relation{
		{Name: "oferta", Aggregate: "ofertas", Kind: HasMany, Table: "ofertas", FK: "id_ciclo"},
	},
}

var Estados = &Descriptor{
	Table: "estados",
	Key:   "id_estado",
	Fields: []Field{
		{Name: "nombre", Type: Text, Unique: true, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
	},
	Relations: []Relation{
		{Name: "compra", Aggregate: "compras", Kind: HasMany, Table: "compras", FK: "id_estado"},
	},
}

var Ofertas = &Descriptor{
	Table: "ofertas",
	Key:   "id_oferta",
	Fields: []Field{
		{Name: "descripcion", Type: Text, Nullable: true},
		{Name: "fecha_inicio", Type: Date, Nullable: true, Default: "now()"},
		{Name: "fecha_fin", Type: Date, Nullable: true, Default: "now()"},
		{Name: "cantidad", Type: Int, Indexed: true},
		{Name: "id_ciclo", Type: Int, Indexed: true},
		{Name: "id_tienda", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "ciclo", Aggregate: "ciclo", Kind: BelongsTo, Table: "ciclos", FK: "id_ciclo"},
		{Name: "tienda", Aggregate: "tienda", Kind: BelongsTo, Table: "tiendas", FK: "id_tienda"},
		{Name: "suboferta", Aggregate: "subofertas", Kind: HasMany, Table: "subofertas", FK: "id_oferta"},
		{Name: "compra", Aggregate: "compras", Kind: HasMany, Table: "compras", FK: "id_oferta"},
	},
}

var Subofertas = &Descriptor{
	Table: "subofertas",
	Key:   "id_suboferta",
	Fields: []Field{
		{Name: "precio", Type: Float, Indexed: true},
		{Name: "cantidad", Type: Int, Indexed: true},
		{Name: "descripcion", Type: Text, Nullable: true},
		{Name: "id_producto", Type: Int, Indexed: true},
		{Name: "id_oferta", Type: Int, Indexed: true},
	},
	Relations: []Relation{
		{Name: "producto", Aggregate: "producto", Kind: BelongsTo, Table: "productos", FK: "id_producto"},
		{Name: "oferta", Aggregate: "oferta", Kind: BelongsTo, Table: "ofertas", FK: "id_oferta"},
	},
}

var Compras = &Descriptor{
	Table: "compras",
	Key:   "id_compra",
	Fields: []Field{
		{Name: "fecha", Type: Timestamp, Nullable: true, Default: "now()"},
		{Name: "terminado", Type: Bool, Default: "false"},
		{Name: "pagado", Type: Bool, Default: "false"},
		{Name: "id_oferta", Type: Int, Indexed: true},
		{Name: "id_nucleo", Type: Int, Indexed: true},
		{Name: "id_usuario", Type: Int, Indexed: true},
		{Name: "id_estado", Type: Int, Indexed: true},
		{Name: "seleccion", Type: Text, Nullable: true},
		{Name: "notificado", Type: Bool, Nullable: true, Default: "true"},
	},
	Relations: []Relation{
		{Name: "oferta", Aggregate: "oferta", Kind: BelongsTo, Table: "ofertas", FK: "id_oferta"},
		{Name: "nucleo", Aggregate: "nucleo", Kind: BelongsTo, Table: "nucleos", FK: "id_nucleo"},
		{Name: "usuario", Aggregate: "usuario", Kind: BelongsTo, Table: "usuarios", FK: "id_usuario"},
		{Name: "estado", Aggregate: "estado", Kind: BelongsTo, Table: "estados", FK: "id_estado"},
	},
	Toggles: []string{"pagado", "terminado", "notificado"},
}
