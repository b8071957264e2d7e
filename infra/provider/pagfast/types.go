package pagfast

// Charge statuses reported by the cob API.
const (
	cobStatusActive  = "ATIVA"
	cobStatusSettled = "CONCLUIDA"
)

// Transfer statuses reported by the pix send API.
const (
	sendStatusProcessing = "EM_PROCESSAMENTO"
	sendStatusDone       = "REALIZADO"
	sendStatusFailed     = "NAO_REALIZADO"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

type cobCalendario struct {
	Criacao   string `json:"criacao,omitempty"`
	Expiracao int    `json:"expiracao"`
}

type cobDevedor struct {
	CPF  string `json:"cpf,omitempty"`
	CNPJ string `json:"cnpj,omitempty"`
	Nome string `json:"nome,omitempty"`
}

type cobValor struct {
	// Original is the charge amount with two decimal places, e.g. "100.00".
	Original string `json:"original"`
}

type cobRequest struct {
	Calendario     cobCalendario `json:"calendario"`
	Devedor        *cobDevedor   `json:"devedor,omitempty"`
	Valor          cobValor      `json:"valor"`
	Chave          string        `json:"chave"`
	SolicitacaoPag string        `json:"solicitacaoPagador,omitempty"`
}

type cobResponse struct {
	TxID          string        `json:"txid"`
	CobID         string        `json:"cobId"`
	Status        string        `json:"status"`
	Calendario    cobCalendario `json:"calendario"`
	Location      string        `json:"loc,omitempty"`
	PixCopiaECola string        `json:"pixCopiaECola"`
}

type sendParty struct {
	Chave string `json:"chave"`
}

type sendRequest struct {
	Valor      string    `json:"valor"`
	Pagador    sendParty `json:"pagador"`
	Favorecido sendParty `json:"favorecido"`
}

type sendResponse struct {
	IDEnvio    string `json:"idEnvio"`
	EndToEndID string `json:"e2eId"`
	Status     string `json:"status"`
}

// webhookPayload is the notification body. Cash-in confirmations carry
// txid/cobId, cash-out settlements carry idEnvio; both share the pix
// envelope.
type webhookPayload struct {
	Pix []webhookEntry `json:"pix"`
}

type webhookEntry struct {
	TxID       string `json:"txid,omitempty"`
	CobID      string `json:"cobId,omitempty"`
	IDEnvio    string `json:"idEnvio,omitempty"`
	EndToEndID string `json:"endToEndId,omitempty"`
	Valor      string `json:"valor,omitempty"`
	Status     string `json:"status"`
	Motivo     string `json:"motivo,omitempty"`
}

type apiError struct {
	Nome     string `json:"nome"`
	Mensagem string `json:"mensagem"`
}

func (e *apiError) Error() string {
	if e.Mensagem != "" {
		return e.Mensagem
	}
	return e.Nome
}
