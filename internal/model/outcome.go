package model

// Status tags an Outcome
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Stage names the flow step that failed
type Stage string

const (
	StageValidation Stage = "validation"
	StageUpload     Stage = "upload"
	StageBuild      Stage = "build"
	StageSign       Stage = "sign"
	StageBroadcast  Stage = "broadcast"
	StageConfirm    Stage = "confirm"
	StageRelay      Stage = "relay"
)

// OutcomeError is the error branch of an Outcome
type OutcomeError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// Outcome is the result of one wallet's leg of a flow.
// Error is set if and only if Status is StatusError.
type Outcome struct {
	Status     Status        `json:"status"`
	Action     string        `json:"action"`
	WalletID   string        `json:"walletId,omitempty"`
	WalletName string        `json:"walletName,omitempty"`
	Mint       string        `json:"mint,omitempty"`
	Amount     string        `json:"amount,omitempty"`
	Signatures []string      `json:"signatures,omitempty"`
	Error      *OutcomeError `json:"error,omitempty"`
}

// Succeeded marks o as a success with the given signatures.
func (o Outcome) Succeeded(signatures ...string) Outcome {
	o.Status = StatusSuccess
	o.Signatures = signatures
	o.Error = nil
	return o
}

// Failed marks o as failed at stage.
func (o Outcome) Failed(stage Stage, err error) Outcome {
	o.Status = StatusError
	o.Error = &OutcomeError{Stage: stage, Message: err.Error()}
	return o
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess
}

// Signature returns the first signature or "".
func (o Outcome) Signature() string {
	if len(o.Signatures) == 0 {
		return ""
	}
	return o.Signatures[0]
}
