package cielo

// Cartões de teste do sandbox. O status da transação depende do último
// dígito do número.
const (
	SandboxCardAuthorized  = "4024007197692931" // final 1
	SandboxCardDenied      = "4024007197692932" // final 2
	SandboxCardExpired     = "4024007197692933" // final 3
	SandboxCardAuthorized4 = "4024007197692934" // final 4
	SandboxCardBlocked     = "4024007197692935" // final 5
	SandboxCardTimeout     = "4024007197692936" // final 6
	SandboxCardCanceled    = "4024007197692937" // final 7
	SandboxCardProblems    = "4024007197692938" // final 8
)

// Códigos de retorno devolvidos pelo sandbox
const (
	ReturnCodeAuthorized   = "4"
	ReturnCodeDenied       = "05"
	ReturnCodeExpiredCard  = "57"
	ReturnCodeBlockedCard  = "78"
	ReturnCodeTimeout      = "99"
	ReturnCodeCanceledCard = "77"
	ReturnCodeCardProblems = "70"
)
