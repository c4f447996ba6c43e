package cargador

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cbiale/calidadaire/validacion"
)

// EsquemaS3 es el prefijo de las rutas que se leen desde S3
const EsquemaS3 = "s3://"

// ErrRutaS3 se retorna cuando una ruta s3:// no tiene bucket o clave
var ErrRutaS3 = errors.New("ruta S3 inválida")

// ConfiguracionS3 contiene la configuración para leer de almacenamiento S3-compatible
// (AWS S3, Garage, MinIO, Cloudflare R2, etc.)
type ConfiguracionS3 struct {
	Endpoint        string `koanf:"endpoint" validate:"required,url"`
	AccessKeyID     string `koanf:"access_key_id" validate:"required"`
	SecretAccessKey string `koanf:"secret_access_key" validate:"required"`
	Region          string `koanf:"region"` // vacío = us-east-1
}

// Validar verifica que todos los campos requeridos estén presentes
func (cfg ConfiguracionS3) Validar() error {
	return validacion.ValidarEstructura(cfg)
}

// Vacia indica si no se configuró S3
func (cfg ConfiguracionS3) Vacia() bool {
	return cfg.Endpoint == "" && cfg.AccessKeyID == "" && cfg.SecretAccessKey == ""
}

// AplicarDefaults establece valores por defecto en campos opcionales
func (cfg *ConfiguracionS3) AplicarDefaults() {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
}

// ClienteS3 son las operaciones S3 que usa el cargador.
// *s3.Client las implementa; los tests inyectan un doble.
type ClienteS3 interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// CrearClienteS3 crea un cliente S3 con endpoint propio y direccionamiento por ruta
func CrearClienteS3(ctx context.Context, cfg ConfiguracionS3) (*s3.Client, error) {
	cfg.AplicarDefaults()
	if err := cfg.Validar(); err != nil {
		return nil, fmt.Errorf("configuración S3 inválida: %w", err)
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("error al cargar configuración de AWS: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	}), nil
}

// ParsearRutaS3 separa s3://bucket/clave en bucket y clave
func ParsearRutaS3(ruta string) (bucket, clave string, err error) {
	if !strings.HasPrefix(ruta, EsquemaS3) {
		return "", "", fmt.Errorf("%w: falta el prefijo %s en %q", ErrRutaS3, EsquemaS3, ruta)
	}
	bucket, clave, _ = strings.Cut(strings.TrimPrefix(ruta, EsquemaS3), "/")
	if bucket == "" || clave == "" {
		return "", "", fmt.Errorf("%w: %q", ErrRutaS3, ruta)
	}
	return bucket, clave, nil
}

// EsRutaS3 indica si la ruta apunta a S3
func EsRutaS3(ruta string) bool {
	return strings.HasPrefix(ruta, EsquemaS3)
}

// abrirObjeto retorna el cuerpo del objeto; el llamador lo cierra
func abrirObjeto(ctx context.Context, cliente ClienteS3, bucket, clave string) (io.ReadCloser, error) {
	salida, err := cliente.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(clave),
	})
	if err != nil {
		return nil, fmt.Errorf("error leyendo s3://%s/%s: %w", bucket, clave, err)
	}
	return salida.Body, nil
}

// ListarObjetos retorna las claves del bucket con el prefijo dado, siguiendo la paginación
func ListarObjetos(ctx context.Context, cliente ClienteS3, bucket, prefijo string) ([]string, error) {
	claves := make([]string, 0)
	paginador := s3.NewListObjectsV2Paginator(cliente, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefijo),
	})
	for paginador.HasMorePages() {
		pagina, err := paginador.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error listando s3://%s/%s: %w", bucket, prefijo, err)
		}
		for _, obj := range pagina.Contents {
			claves = append(claves, aws.ToString(obj.Key))
		}
	}
	return claves, nil
}
