package cielo

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/magnani/cielo-ecommerce/internal/ports"
)

// DefaultTimeout é o timeout padrão de cada chamada ao gateway
const DefaultTimeout = 30 * time.Second

// maxResponseSize limita o corpo lido de uma resposta
const maxResponseSize = 1 << 20

// HTTPTransportConfig configura o transporte HTTP
type HTTPTransportConfig struct {
	Timeout time.Duration

	// Certificado cliente .p12 opcional, para saídas que exigem mTLS
	CertificatePath     string
	CertificatePassword string
}

// HTTPTransport implementa ports.GatewayTransport sobre net/http
type HTTPTransport struct {
	httpClient *http.Client
}

// NewHTTPTransport cria o transporte HTTP, com mTLS se houver certificado
func NewHTTPTransport(cfg HTTPTransportConfig) (*HTTPTransport, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	tlsConfig, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig:     tlsConfig,
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &HTTPTransport{httpClient: httpClient}, nil
}

// NewHTTPTransportWithClient usa um *http.Client já configurado (ex: httptest)
func NewHTTPTransportWithClient(httpClient *http.Client) *HTTPTransport {
	return &HTTPTransport{httpClient: httpClient}
}

// tlsConfig monta a configuração TLS, anexando o certificado cliente se houver
func (cfg HTTPTransportConfig) tlsConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.CertificatePath == "" {
		return tlsConfig, nil
	}

	data, err := os.ReadFile(cfg.CertificatePath)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler certificado %s: %w", cfg.CertificatePath, err)
	}
	cert, err := decodeClientCertificate(data, cfg.CertificatePassword)
	if err != nil {
		return nil, fmt.Errorf("certificado %s: %w", cfg.CertificatePath, err)
	}
	tlsConfig.Certificates = []tls.Certificate{cert}
	return tlsConfig, nil
}

// decodeClientCertificate lê um .p12 com uma chave e um certificado
func decodeClientCertificate(data []byte, password string) (tls.Certificate, error) {
	key, leaf, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("PKCS#12 inválido: %w", err)
	}
	return tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}, nil
}

// Send executa a requisição. Erros devolvidos significam ausência de
// resposta; qualquer status HTTP é devolvido para o classificador.
func (t *HTTPTransport) Send(ctx context.Context, r ports.TransportRequest) (*ports.TransportResponse, error) {
	var reqBody io.Reader
	if r.Body != nil {
		reqBody = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar requisição: %w", err)
	}
	for key, values := range r.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro na requisição HTTP: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	return &ports.TransportResponse{
		StatusCode: resp.StatusCode,
		Body:       respBody,
	}, nil
}

var _ ports.GatewayTransport = (*HTTPTransport)(nil)
