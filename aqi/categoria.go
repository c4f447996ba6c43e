package aqi

// Categoria es un tramo de la escala con su nivel de riesgo para la salud
type Categoria struct {
	Nombre string `json:"nombre"`
	Minimo int    `json:"minimo"`
	Maximo int    `json:"maximo"`
}

// Categorias en orden creciente
var Categorias = []Categoria{
	{"Buena", 0, 50},
	{"Moderada", 51, 100},
	{"Dañina para grupos sensibles", 101, 150},
	{"Dañina", 151, 200},
	{"Muy dañina", 201, 300},
	{"Peligrosa", 301, IndiceMaximo},
}

// Categorizar retorna la categoría del índice. Valores fuera de escala se asignan al extremo.
func Categorizar(indice int) Categoria {
	for _, c := range Categorias {
		if indice <= c.Maximo {
			return c
		}
	}
	return Categorias[len(Categorias)-1]
}
