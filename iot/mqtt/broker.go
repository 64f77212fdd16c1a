package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/DrmagicE/gmqtt"
	"github.com/DrmagicE/gmqtt/pkg/packets"

	"github.com/huuvinhnguyen/alocoap/core/logger"
	"github.com/huuvinhnguyen/alocoap/iot"
)

// Broker is a MQTT broker for sensor devices.
type Broker struct {
	p *plugin
}

// Builder is a builder helper for the Broker
type Builder struct {
	// ListenAddress is the TCP address the broker listens on. Default is ":1883",
	// or ":8883" with TLS.
	ListenAddress string
	// CACertFile is the file path to the X.509 certificate of the certificate authority.
	// Optional, but if one of the certificate files is set, all three are mandatory.
	CACertFile string
	// CertFile is the file path to the X.509 certificate file.
	CertFile string
	// KeyFile is the file path to the X.509 private key file.
	KeyFile string
	// Sink receives all valid readings published by devices. This is mandatory.
	Sink iot.ReadingSink
}

// plugin is the plugin for GMQTT
type plugin struct {
	ln             net.Listener
	deviceIdsRwmux sync.RWMutex
	deviceIds      map[net.Conn]string

	serviceMux sync.RWMutex
	service    gmqtt.Server

	sink iot.ReadingSink
	now  func() time.Time
}

// NewBroker returns a new broker listening on the configured address. The broker will not
// actually serve clients until you call Run()
func NewBroker(bb *Builder) *Broker {
	if bb.Sink == nil {
		panic("Sink is missing")
	}

	withTLS := len(bb.CACertFile) > 0 || len(bb.CertFile) > 0 || len(bb.KeyFile) > 0
	address := bb.ListenAddress

	var ln net.Listener
	if withTLS {
		if len(bb.CACertFile) == 0 {
			panic("ca-cert file misssing")
		}
		if len(bb.CertFile) == 0 {
			panic("cert file missing")
		}
		if len(bb.KeyFile) == 0 {
			panic("key file missing")
		}
		if address == "" {
			address = ":8883"
		}
		tlsConfig, err := serverTLSConfig(bb.CACertFile, bb.CertFile, bb.KeyFile)
		if err != nil {
			panic(err)
		}
		ln, err = tls.Listen("tcp", address, tlsConfig)
		if err != nil {
			panic(err)
		}
	} else {
		if address == "" {
			address = ":1883"
		}
		var err error
		ln, err = net.Listen("tcp", address)
		if err != nil {
			panic(err)
		}
	}
	logger.Default().Infof("mqtt broker listening on %s (tls=%t)", ln.Addr(), withTLS)

	return &Broker{
		p: &plugin{
			ln:        ln,
			deviceIds: make(map[net.Conn]string),
			sink:      bb.Sink,
			now:       time.Now,
		},
	}
}

func serverTLSConfig(caCertFile, certFile, keyFile string) (*tls.Config, error) {
	crt, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("cannot load key pair: %w", err)
	}
	caCert, err := os.ReadFile(caCertFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read ca-cert: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if !caCertPool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("no certificate found in %s", caCertFile)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{crt},
		ClientCAs:    caCertPool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Addr returns the address the broker listens on
func (b *Broker) Addr() net.Addr {
	return b.p.ln.Addr()
}

// Run is blocking and runs the server until the context is done.
func (b *Broker) Run(ctx context.Context) {
	s := gmqtt.NewServer(
		gmqtt.WithTCPListener(b.p.ln),
		gmqtt.WithPlugin(b.p),
	)
	s.Run()
	logger.Default().Infoln("mqtt broker started")

	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Stop(stopCtx)
	logger.Default().Infoln("mqtt broker stopped")
}

// PublishMessageQ1 publishes an MQTT messsage with quality level 1
func (b *Broker) PublishMessageQ1(topic string, payload []byte) {
	b.p.serviceMux.RLock()
	service := b.p.service
	b.p.serviceMux.RUnlock()
	if service == nil {
		logger.Default().Warnf("PublishMessageQ1 on %s: broker not running", topic)
		return
	}
	logger.Default().Debugf("PublishMessageQ1 on %s (%d bytes)", topic, len(payload))
	msg := gmqtt.NewMessage(topic, payload, packets.QOS_1)
	service.PublishService().Publish(msg)
}

// Load implements plugin interface
func (p *plugin) Load(service gmqtt.Server) error {
	logger.Default().Debugln("load alocoap plugin")
	p.serviceMux.Lock()
	defer p.serviceMux.Unlock()
	p.service = service
	return nil
}

// Unload implements plugin interface
func (p *plugin) Unload() error {
	p.serviceMux.Lock()
	defer p.serviceMux.Unlock()
	p.service = nil
	return nil
}

// Name implements plugin interface
func (p *plugin) Name() string { return "alocoap broker" }

// HookWrapper implements plugin interface
func (p *plugin) HookWrapper() gmqtt.HookWrapper {
	return gmqtt.HookWrapper{
		OnAcceptWrapper:     p.OnAcceptWrapper,
		OnConnectWrapper:    p.OnConnectWrapper,
		OnSubscribeWrapper:  p.OnSubscribeWrapper,
		OnSubscribedWrapper: p.OnSubscribedWrapper,
		OnMsgArrivedWrapper: p.OnMsgArrivedWrapper,
		OnCloseWrapper:      p.OnCloseWrapper,
	}
}

// takeDeviceID returns the certificate device ID of a connection and forgets it
func (p *plugin) takeDeviceID(conn net.Conn) (string, bool) {
	p.deviceIdsRwmux.Lock()
	defer p.deviceIdsRwmux.Unlock()
	deviceID, ok := p.deviceIds[conn]
	delete(p.deviceIds, conn)
	return deviceID, ok
}

// OnCloseWrapper forgets the certificate device ID of connections that closed before CONNECT
func (p *plugin) OnCloseWrapper(onClose gmqtt.OnClose) gmqtt.OnClose {
	return func(ctx context.Context, client gmqtt.Client, err error) {
		p.takeDeviceID(client.Connection())
		onClose(ctx, client, err)
	}
}

// validDeviceID reports whether id can be used as a topic level
func validDeviceID(id string) bool {
	return len(id) > 0 && !strings.ContainsAny(id, "/+#")
}

// OnAcceptWrapper authorizes clients via TLS certificates
func (p *plugin) OnAcceptWrapper(accept gmqtt.OnAccept) gmqtt.OnAccept {
	return func(ctx context.Context, conn net.Conn) bool {
		tlsConn, ok := conn.(*tls.Conn)
		if ok {
			err := tlsConn.Handshake()
			if err != nil {
				logger.Default().WithError(err).Warnln("tls handshake failed")
				return false
			}
			state := tlsConn.ConnectionState()
			if len(state.VerifiedChains) == 0 || len(state.VerifiedChains[0]) == 0 {
				return false
			}
			commonName := state.VerifiedChains[0][0].Subject.CommonName
			if !validDeviceID(commonName) {
				logger.Default().Warnln("invalid device ID in certificate:", commonName)
				return false
			}

			p.deviceIdsRwmux.Lock()
			p.deviceIds[conn] = commonName
			p.deviceIdsRwmux.Unlock()
			logger.Default().Debugln("accept", commonName)
		}
		return accept(ctx, conn)
	}
}

// OnConnectWrapper enforces that the MQTT client ID is a valid device ID and matches the
// certificate common name
func (p *plugin) OnConnectWrapper(connect gmqtt.OnConnect) gmqtt.OnConnect {
	return func(ctx context.Context, client gmqtt.Client) (code uint8) {
		clientID := client.OptionsReader().ClientID()
		if !validDeviceID(clientID) {
			logger.Default().Warnf("connect denied, invalid client ID %q", clientID)
			return packets.CodeNotAuthorized
		}
		if deviceID, ok := p.takeDeviceID(client.Connection()); ok && deviceID != clientID {
			logger.Default().Warnln("connect denied,", clientID, "not authorized")
			return packets.CodeNotAuthorized
		}
		logger.Default().Infoln("connect", clientID)
		return connect(ctx, client)
	}
}

// publishVerdict is the policy decision for a published message
type publishVerdict int

const (
	publishPass publishVerdict = iota
	publishReading
	publishDenied
)

// publishPolicy decides what to do with a message a device published to topic
func publishPolicy(deviceID, topic string) publishVerdict {
	if !strings.HasPrefix(topic, iot.TopicPrefix) {
		return publishPass
	}
	if topic == iot.ReadingsTopic(deviceID) {
		return publishReading
	}
	return publishDenied
}

// subscribeAllowed decides whether a device may subscribe to filter
func subscribeAllowed(deviceID, filter string) bool {
	return filter == iot.DisplayTopic(deviceID)
}

// handleReading parses a reading and passes it to the sink. It returns false if the
// payload was no valid reading.
func (p *plugin) handleReading(ctx context.Context, deviceID string, payload []byte) bool {
	ctx, rlog := logger.ContextWithLoggerIdentity(ctx, deviceID)
	reading, err := iot.ParseReading(deviceID, payload, p.now())
	if err != nil {
		rlog.WithError(err).Warnln("dropping reading")
		return false
	}
	if err := p.sink.HandleReading(ctx, reading); err != nil {
		rlog.WithError(err).Errorln("Error 2001: handle reading")
	}
	return true
}

// OnMsgArrivedWrapper intercepts messages
func (p *plugin) OnMsgArrivedWrapper(arrived gmqtt.OnMsgArrived) gmqtt.OnMsgArrived {
	return func(ctx context.Context, client gmqtt.Client, msg packets.Message) (valid bool) {
		deviceID := client.OptionsReader().ClientID()
		topic := msg.Topic()
		logger.Default().Debugln("OnMsgArrived", deviceID, topic)
		switch publishPolicy(deviceID, topic) {
		case publishDenied:
			logger.Default().Warnln("OnMsgArrived", deviceID, topic, "denied!")
			return false
		case publishReading:
			if !p.handleReading(ctx, deviceID, msg.Payload()) {
				return false
			}
		}
		return arrived(ctx, client, msg)
	}
}

// OnSubscribeWrapper enforces topic policy
func (p *plugin) OnSubscribeWrapper(subscribe gmqtt.OnSubscribe) gmqtt.OnSubscribe {
	return func(ctx context.Context, client gmqtt.Client, topic packets.Topic) (qos uint8) {
		deviceID := client.OptionsReader().ClientID()
		if !subscribeAllowed(deviceID, topic.Name) {
			logger.Default().Warnln("OnSubscribe", deviceID, topic.Name, "denied!")
			return packets.SUBSCRIBE_FAILURE
		}
		return subscribe(ctx, client, topic)
	}
}

// OnSubscribedWrapper logs the subscription
func (p *plugin) OnSubscribedWrapper(subscribed gmqtt.OnSubscribed) gmqtt.OnSubscribed {
	return func(ctx context.Context, client gmqtt.Client, topic packets.Topic) {
		logger.Default().Debugln("OnSubscribed", client.OptionsReader().ClientID(), topic.Name)
		subscribed(ctx, client, topic)
	}
}
