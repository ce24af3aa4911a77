package cielo

import "strings"

const (
	// Produção
	APIURLProd   = "https://api.cieloecommerce.cielo.com.br/"
	QueryURLProd = "https://apiquery.cieloecommerce.cielo.com.br/"

	// Sandbox/Homologação
	APIURLSandbox   = "https://apisandbox.cieloecommerce.cielo.com.br/"
	QueryURLSandbox = "https://apiquerysandbox.cieloecommerce.cielo.com.br/"
)

// Cabeçalhos exigidos pelo gateway
const (
	HeaderMerchantID  = "MerchantId"
	HeaderMerchantKey = "MerchantKey"
	HeaderRequestID   = "RequestId"
)

// Environment define os endpoints usados pelo cliente. Transações vão para
// APIURL e consultas para QueryURL.
type Environment struct {
	Name     string
	APIURL   string
	QueryURL string
}

var (
	// Sandbox aponta para o ambiente de homologação
	Sandbox = Environment{Name: "sandbox", APIURL: APIURLSandbox, QueryURL: QueryURLSandbox}

	// Production aponta para o ambiente de produção
	Production = Environment{Name: "production", APIURL: APIURLProd, QueryURL: QueryURLProd}
)

// NewEnvironment cria um ambiente com URLs próprias (ex: servidor de testes)
func NewEnvironment(name, apiURL, queryURL string) Environment {
	return Environment{Name: name, APIURL: apiURL, QueryURL: queryURL}
}

func (e Environment) apiURL(path string) string {
	return joinURL(e.APIURL, path)
}

func (e Environment) queryURL(path string) string {
	return joinURL(e.QueryURL, path)
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
