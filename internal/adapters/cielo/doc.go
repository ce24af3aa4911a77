// Package cielo implementa o adaptador para a API Cielo E-commerce
// (cartão de crédito, boleto e transferência eletrônica).
//
// Este pacote implementa:
//   - Criação de transações (autorização com captura opcional)
//   - Captura e cancelamento, totais ou parciais
//   - Recorrência (agendamento, ativação e desativação)
//   - Consultas por PaymentId, por número do pedido e de recorrência
//   - Tratamento do post de notificação
//
// # Autenticação
//
// Toda requisição leva os cabeçalhos MerchantId e MerchantKey. Operações que
// alteram estado exigem também um RequestId, que funciona como chave de
// idempotência: repetir a chamada com o mesmo RequestId não duplica o efeito.
//
// # Início Rápido
//
// Criar o cliente:
//
//	client, err := cielo.NewClient(cielo.Sandbox, cielo.Merchant{ID: id, Key: key})
//
// Autorizar e capturar:
//
//	card := domain.NewCreditCard("4024007197692931", "Comprador Teste", validade, "123", domain.BrandVisa)
//	payment := domain.NewCreditCardPayment(domain.MustParseAmount("150.08"), card)
//	txn, err := domain.NewTransaction("pedido-123", domain.NewCustomer("Comprador Teste"), payment)
//
//	created, err := client.CreateTransaction(ctx, cielo.NewRequestID(), txn)
//	if created.Payment.IsDenied() {
//	    // Negação não é erro: veja created.Payment.ReturnCode
//	}
//	paid, err := client.CaptureTransaction(ctx, cielo.NewRequestID(), created.Payment.PaymentID, nil)
//
// # Tratamento de Erros
//
// Os erros separam rejeição do gateway de falha de transporte:
//
//	if domain.IsValidation(err) {
//	    // Dados inválidos, nada foi enviado
//	}
//	if domain.IsIllegalTransition(err) {
//	    // Operação não permitida no status atual
//	}
//	if cielo.HasErrorCode(err, cielo.ErrCodeCardExpirationInvalid) {
//	    // Rejeitado pelo gateway com o código informado
//	}
//	if cielo.IsRetryable(err) {
//	    // Sem resposta: repita a criação com o mesmo RequestId; captura e
//	    // cancelamento são confirmados com ConsultTransaction
//	}
//
// # Documentação da API
//
// Para mais detalhes, consulte a documentação oficial:
// https://developercielo.github.io/manual/cielo-ecommerce
package cielo
