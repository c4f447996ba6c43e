// Package servidor implementa un intermediario CoAP mínimo: los clientes se
// suscriben con GET + observe y publican con POST sobre la ruta del tópico.
package servidor

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/cbiale/calidadaire/logging"
	"github.com/cbiale/calidadaire/middleware"
	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/mux"
	coapNet "github.com/plgd-dev/go-coap/v3/net"
	"github.com/plgd-dev/go-coap/v3/options"
	"github.com/plgd-dev/go-coap/v3/udp"
	udpServer "github.com/plgd-dev/go-coap/v3/udp/server"
	"github.com/rs/zerolog"
)

// observador es una conexión suscripta a una ruta
type observador struct {
	conexion mux.Conn
	token    []byte
}

// ServidorCoAP reenvía cada POST a los observadores de la misma ruta
type ServidorCoAP struct {
	log      zerolog.Logger
	listener *coapNet.UDPConn
	servidor *udpServer.Server

	secuencia    atomic.Uint32
	mu           sync.Mutex
	observadores map[string][]observador
}

// IniciarCoAP escucha en la dirección UDP dada y sirve en segundo plano
func IniciarCoAP(direccion string) (*ServidorCoAP, error) {
	l, err := coapNet.NewListenUDP("udp", direccion)
	if err != nil {
		return nil, fmt.Errorf("error al escuchar en %s: %w", direccion, err)
	}

	s := &ServidorCoAP{
		log:          logging.Con("coap"),
		listener:     l,
		observadores: make(map[string][]observador),
	}

	r := mux.NewRouter()
	r.DefaultHandle(mux.HandlerFunc(s.manejar))
	s.servidor = udp.NewServer(options.WithMux(r))

	go func() {
		if err := s.servidor.Serve(l); err != nil {
			s.log.Error().Err(err).Msg("Servidor CoAP detenido con error")
		}
	}()

	s.log.Info().Str("direccion", l.LocalAddr().String()).Msg("Servidor CoAP iniciado")
	return s, nil
}

// Direccion retorna la dirección local efectiva (útil con puerto 0)
func (s *ServidorCoAP) Direccion() net.Addr {
	return s.listener.LocalAddr()
}

// Detener cierra el servidor y el listener
func (s *ServidorCoAP) Detener() {
	s.servidor.Stop()
	s.listener.Close()
}

// Observadores retorna la cantidad de suscripciones activas de un tópico
func (s *ServidorCoAP) Observadores(topico string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observadores[middleware.Topico(topico)])
}

func (s *ServidorCoAP) manejar(w mux.ResponseWriter, r *mux.Message) {
	ruta, err := r.Path()
	if err != nil {
		s.log.Warn().Err(err).Str("codigo", r.Code().String()).Msg("Solicitud sin ruta")
		return
	}
	topico := middleware.Topico(ruta)

	obs, errObs := r.Options().Observe()
	switch {
	case r.Code() == codes.GET && errObs == nil && obs == 0:
		s.suscribir(w, r, topico)
	case r.Code() == codes.GET && errObs == nil:
		s.desuscribir(w, r, topico)
	case r.Code() == codes.POST:
		cuerpo, err := r.Message.ReadBody()
		if err != nil {
			s.log.Warn().Err(err).Msg("Error al leer el cuerpo")
			w.SetResponse(codes.BadRequest, message.TextPlain, bytes.NewReader([]byte(err.Error())))
			return
		}
		if err := w.SetResponse(codes.Created, message.TextPlain, nil); err != nil {
			s.log.Warn().Err(err).Msg("Error al enviar respuesta")
		}
		s.difundir(topico, cuerpo)
	default:
		w.SetResponse(codes.MethodNotAllowed, message.TextPlain, bytes.NewReader([]byte("método no soportado")))
	}
}

func (s *ServidorCoAP) suscribir(w mux.ResponseWriter, r *mux.Message, topico string) {
	s.mu.Lock()
	s.observadores[topico] = append(s.observadores[topico], observador{w.Conn(), r.Token()})
	s.mu.Unlock()
	s.log.Debug().Str("topico", topico).Msg("Observador agregado")

	// la respuesta inicial de la observación va vacía
	if err := notificar(w.Conn(), r.Token(), nil, int64(s.secuencia.Add(1))); err != nil {
		s.log.Warn().Err(err).Msg("Error al confirmar suscripción")
	}
}

func (s *ServidorCoAP) desuscribir(w mux.ResponseWriter, r *mux.Message, topico string) {
	if err := notificar(w.Conn(), r.Token(), nil, -1); err != nil {
		s.log.Warn().Err(err).Msg("Error al confirmar desuscripción")
	}
	s.quitar(topico, r.Token())
}

func (s *ServidorCoAP) quitar(topico string, token []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observadores[topico] {
		if bytes.Equal(o.token, token) {
			s.observadores[topico] = append(s.observadores[topico][:i], s.observadores[topico][i+1:]...)
			break
		}
	}
	if len(s.observadores[topico]) == 0 {
		delete(s.observadores, topico)
	}
}

// difundir notifica a los observadores; los que fallan se descartan
func (s *ServidorCoAP) difundir(topico string, cuerpo []byte) {
	s.mu.Lock()
	destinos := append([]observador(nil), s.observadores[topico]...)
	s.mu.Unlock()

	for _, o := range destinos {
		if err := notificar(o.conexion, o.token, cuerpo, int64(s.secuencia.Add(1))); err != nil {
			s.log.Warn().Err(err).Str("topico", topico).Msg("Observador descartado")
			s.quitar(topico, o.token)
		}
	}
}

func notificar(cc mux.Conn, token, cuerpo []byte, obs int64) error {
	m := cc.AcquireMessage(cc.Context())
	defer cc.ReleaseMessage(m)
	m.SetCode(codes.Content)
	m.SetToken(token)
	m.SetContentFormat(message.AppJSON)
	if len(cuerpo) > 0 {
		m.SetBody(bytes.NewReader(cuerpo))
	}
	if obs >= 0 {
		m.SetObserve(uint32(obs))
	}
	return cc.WriteMessage(m)
}
