package cargador

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbiale/calidadaire/compresor"
)

const csvUCI = `Date;Time;CO(GT);PT08.S1(CO);NMHC(GT);C6H6(GT);NOx(GT);NO2(GT);PT08.S5(O3);T;RH;AH;;
10/03/2004;18.00.00;2,6;1360;150;11,9;166;113;1268;13,6;48,9;0,7578;;
10/03/2004;19.00.00;2;1292;112;9,4;103;92;972;13,3;47,7;0,7255;;
;;;;;;;;;;;;;;
10/03/2004;20.00.00;2,2;1402;88;9,0;131;114;1074;11,9;54,0;0,7502;;
`

// TestLeerCSV verifica el formato de la estación con separadores finales
func TestLeerCSV(t *testing.T) {
	conjunto, err := LeerCSV(strings.NewReader(csvUCI), ';')
	require.NoError(t, err)
	columnas, filas := conjunto.Columnas, conjunto.Filas

	assert.Len(t, columnas, 12)
	assert.NotContains(t, columnas, "")
	require.Len(t, filas, 3, "la fila vacía se descarta")
	assert.Zero(t, conjunto.Descartadas, "la fila vacía no cuenta como mal formada")

	assert.Equal(t, "10/03/2004", filas[0]["Date"])
	assert.Equal(t, "18.00.00", filas[0]["Time"])
	assert.Equal(t, "2,6", filas[0]["CO(GT)"])
	assert.Equal(t, "0,7502", filas[2]["AH"])
	t.Logf("✓ Columnas: %v", columnas)
}

// TestLeerCSV_Coma verifica un archivo con coma como delimitador
func TestLeerCSV_Coma(t *testing.T) {
	contenido := "Date,Time,CO(GT)\n03/10/2004,18:00:00,2.6\n03/10/2004,19:00:00,\n"
	conjunto, err := LeerCSV(strings.NewReader(contenido), ',')
	require.NoError(t, err)
	require.Len(t, conjunto.Filas, 2)
	assert.Equal(t, "", conjunto.Filas[1]["CO(GT)"])
}

// TestLeerCSV_FilasIrregulares verifica que una fila con campos de más o de
// menos se descarta y se cuenta sin abortar la carga
func TestLeerCSV_FilasIrregulares(t *testing.T) {
	casos := []struct {
		nombre      string
		contenido   string
		filas       int
		descartadas int
	}{
		{
			nombre:      "campo extra",
			contenido:   "Date;Time;CO(GT)\n03/10/2004;18.00.00;2,6\n03/10/2004;19.00.00;2,0;extra\n03/10/2004;20.00.00;2,2\n",
			filas:       2,
			descartadas: 1,
		},
		{
			nombre:      "campo faltante",
			contenido:   "Date;Time;CO(GT)\n03/10/2004;18.00.00;2,6\n03/10/2004;19.00.00\n03/10/2004;20.00.00;2,2\n",
			filas:       2,
			descartadas: 1,
		},
		{
			nombre:      "separadores finales vacíos",
			contenido:   "Date;Time;CO(GT)\n03/10/2004;18.00.00;2,6;;\n03/10/2004;19.00.00;2,0\n",
			filas:       2,
			descartadas: 0,
		},
		{
			nombre:      "solo encabezado",
			contenido:   "Date;Time;CO(GT)\n",
			filas:       0,
			descartadas: 0,
		},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			conjunto, err := LeerCSV(strings.NewReader(c.contenido), ';')
			require.NoError(t, err)
			assert.Len(t, conjunto.Filas, c.filas)
			assert.Equal(t, c.descartadas, conjunto.Descartadas)
			assert.Equal(t, []string{"Date", "Time", "CO(GT)"}, conjunto.Columnas)
		})
	}

	conjunto, err := LeerCSV(strings.NewReader(casos[0].contenido), ';')
	require.NoError(t, err)
	assert.Equal(t, "18.00.00", conjunto.Filas[0]["Time"])
	assert.Equal(t, "20.00.00", conjunto.Filas[1]["Time"])
	t.Log("✓ Las filas vecinas a la irregular se cargan")
}

// TestCargar_ArchivoLocal verifica la carga de archivos planos y comprimidos
func TestCargar_ArchivoLocal(t *testing.T) {
	dir := t.TempDir()

	casos := []struct {
		nombre string
		tipo   compresor.TipoCompresionBloque
	}{
		{"AirQualityUCI.csv", compresor.SinCompresion},
		{"AirQualityUCI.csv.gz", compresor.Gzip},
		{"AirQualityUCI.csv.zst", compresor.ZSTD},
		{"AirQualityUCI.csv.lz4", compresor.LZ4},
	}

	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			datos, err := compresor.NuevoCompresorBloque(c.tipo).Comprimir([]byte(csvUCI))
			require.NoError(t, err)
			ruta := filepath.Join(dir, c.nombre)
			require.NoError(t, os.WriteFile(ruta, datos, 0o600))

			conjunto, err := Nuevo(nil).Cargar(context.Background(), Configuracion{Ruta: ruta})
			require.NoError(t, err)
			assert.Equal(t, ruta, conjunto.Fuente)
			assert.Len(t, conjunto.Filas, 3)
			assert.Zero(t, conjunto.Descartadas)
		})
	}
}

// TestCargar_Errores verifica ruta vacía, inexistente y S3 sin cliente
func TestCargar_Errores(t *testing.T) {
	c := Nuevo(nil)
	ctx := context.Background()

	_, err := c.Cargar(ctx, Configuracion{})
	assert.ErrorIs(t, err, ErrSinRuta)

	_, err = c.Cargar(ctx, Configuracion{Ruta: filepath.Join(t.TempDir(), "no-existe.csv")})
	assert.Error(t, err)

	_, err = c.Cargar(ctx, Configuracion{Ruta: "s3://datos/aq.csv"})
	assert.Error(t, err)

	_, err = c.Cargar(ctx, Configuracion{Ruta: "x.csv", Delimitador: ";;"})
	assert.Error(t, err)
}

// clienteS3Prueba es un doble de ClienteS3 con objetos en memoria
type clienteS3Prueba struct {
	objetos map[string][]byte // "bucket/clave" → contenido
}

func (c *clienteS3Prueba) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	datos, ok := c.objetos[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(datos))}, nil
}

func (c *clienteS3Prueba) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	salida := &s3.ListObjectsV2Output{}
	for k := range c.objetos {
		bucket, clave, _ := strings.Cut(k, "/")
		if bucket == aws.ToString(in.Bucket) && strings.HasPrefix(clave, aws.ToString(in.Prefix)) {
			salida.Contents = append(salida.Contents, s3types.Object{Key: aws.String(clave)})
		}
	}
	return salida, nil
}

// TestCargar_S3 verifica la lectura de un objeto comprimido desde S3
func TestCargar_S3(t *testing.T) {
	comprimido, err := (&compresor.CompresorGzip{}).Comprimir([]byte(csvUCI))
	require.NoError(t, err)

	cliente := &clienteS3Prueba{objetos: map[string][]byte{
		"estacion/2004/AirQualityUCI.csv.gz": comprimido,
	}}

	conjunto, err := Nuevo(cliente).Cargar(context.Background(), Configuracion{
		Ruta: "s3://estacion/2004/AirQualityUCI.csv.gz",
	})
	require.NoError(t, err)
	assert.Len(t, conjunto.Filas, 3)

	claves, err := ListarObjetos(context.Background(), cliente, "estacion", "2004/")
	require.NoError(t, err)
	assert.Equal(t, []string{"2004/AirQualityUCI.csv.gz"}, claves)

	_, err = Nuevo(cliente).Cargar(context.Background(), Configuracion{Ruta: "s3://estacion/otro.csv"})
	assert.Error(t, err)
}

// TestParsearRutaS3 verifica la separación en bucket y clave
func TestParsearRutaS3(t *testing.T) {
	bucket, clave, err := ParsearRutaS3("s3://estacion/2004/aq.csv")
	require.NoError(t, err)
	assert.Equal(t, "estacion", bucket)
	assert.Equal(t, "2004/aq.csv", clave)

	for _, ruta := range []string{"estacion/aq.csv", "s3://estacion", "s3:///aq.csv"} {
		_, _, err := ParsearRutaS3(ruta)
		assert.ErrorIs(t, err, ErrRutaS3, ruta)
	}
}
