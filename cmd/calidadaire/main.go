// cmd/calidadaire/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/cbiale/calidadaire/almacen"
	"github.com/cbiale/calidadaire/cargador"
	"github.com/cbiale/calidadaire/configuracion"
	"github.com/cbiale/calidadaire/consulta"
	"github.com/cbiale/calidadaire/despachador"
	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/middleware/servidor"
	"github.com/cbiale/calidadaire/servicio"
)

const timeoutApagado = 10 * time.Second

func main() {
	archivo := flag.String("config", "", "archivo de configuración YAML (por defecto $CALIDADAIRE_CONFIG o calidadaire.yaml)")
	listar := flag.String("listar", "", "lista los objetos de un prefijo s3://bucket/prefijo y termina")
	flag.Parse()

	cfg, err := cargarConfiguracion(*archivo)
	if err != nil {
		logging.Error().Err(err).Msg("Error cargando configuración")
		os.Exit(1)
	}
	logging.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *listar != "" {
		err = listarObjetos(ctx, cfg, *listar)
	} else {
		err = ejecutar(ctx, cfg)
	}
	if err != nil {
		logging.Error().Err(err).Msg("Servicio terminado con error")
		os.Exit(1)
	}
}

func cargarConfiguracion(archivo string) (configuracion.Configuracion, error) {
	if archivo != "" {
		return configuracion.CargarDesde(archivo)
	}
	return configuracion.Cargar()
}

func listarObjetos(ctx context.Context, cfg configuracion.Configuracion, ruta string) error {
	bucket, prefijo, err := cargador.ParsearRutaS3(ruta)
	if err != nil {
		return err
	}
	cliente, err := cargador.CrearClienteS3(ctx, cfg.Conjunto.S3)
	if err != nil {
		return err
	}
	claves, err := cargador.ListarObjetos(ctx, cliente, bucket, prefijo)
	if err != nil {
		return err
	}
	for _, clave := range claves {
		fmt.Printf("%s%s/%s\n", cargador.EsquemaS3, bucket, clave)
	}
	return nil
}

// ejecutar carga el conjunto, levanta las interfaces configuradas y bloquea
// hasta la cancelación del contexto
func ejecutar(ctx context.Context, cfg configuracion.Configuracion) error {
	log := logging.Con("main")

	alm, err := almacen.Abrir(cfg.Almacen)
	if err != nil {
		return err
	}
	defer alm.Cerrar()

	cfgCargador := cfg.Conjunto.Cargador()
	carg, err := cargador.NuevoDesdeConfiguracion(ctx, cfgCargador)
	if err != nil {
		return err
	}
	cargado, err := carg.Cargar(ctx, cfgCargador)
	if err != nil {
		return err
	}

	conjunto, err := consulta.Preparar(cargado, cfg.Conjunto.Normalizador(), alm)
	if err != nil {
		return err
	}
	motor := consulta.NuevoMotor(conjunto, alm, consulta.Defectos{
		InicioSemana:  cfg.Agregacion.InicioSemana,
		LimiteMuestra: cfg.Agregacion.LimiteMuestra,
	})
	log.Info().
		Str("conjunto", conjunto.ID.String()).
		Int("registros", len(conjunto.Registros)).
		Int("descartadas", conjunto.Descartadas).
		Int("coerciones", conjunto.Coerciones).
		Msg("Conjunto listo")

	// intermediario CoAP embebido
	if cfg.Transporte.Protocolo == "coap" && cfg.Transporte.Intermediario {
		srv, err := servidor.IniciarCoAP(cfg.Transporte.Direccion)
		if err != nil {
			return err
		}
		defer srv.Detener()
	}

	cliente, err := servicio.Conectar(ctx, cfg.Transporte, "calidadaire-"+uuid.NewString())
	if err != nil {
		return err
	}
	if cliente != nil {
		defer cliente.Desconectar()
		svc := servicio.Nuevo(cliente, motor, cfg.Transporte.Prefijo)
		if err := svc.Iniciar(); err != nil {
			return err
		}
		defer svc.Detener()
	}

	var erroresHTTP <-chan error
	if cfg.HTTP.Habilitado {
		srv := despachador.NuevoServidor(cfg.HTTP.Direccion, despachador.Nuevo(motor))
		erroresHTTP = srv.Iniciar()
		defer func() {
			ctxApagado, cancelar := context.WithTimeout(context.Background(), timeoutApagado)
			defer cancelar()
			if err := srv.Detener(ctxApagado); err != nil {
				log.Warn().Err(err).Msg("Apagado HTTP incompleto")
			}
		}()
	}

	if cliente == nil && !cfg.HTTP.Habilitado {
		return errors.New("sin interfaces habilitadas: configure http o transporte")
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Señal de apagado recibida")
		return nil
	case err, ok := <-erroresHTTP:
		if ok {
			return fmt.Errorf("servidor HTTP: %w", err)
		}
		return nil
	}
}
