package domain

import "fmt"

// Step is a state of the guided declaration conversation.
type Step string

const (
	StepProduct       Step = "product"
	StepNetto         Step = "netto"
	StepBrutto        Step = "brutto"
	StepPlaces        Step = "places"
	StepPrice         Step = "price"
	StepAddMore       Step = "add_more"
	StepInvoiceNumber Step = "invoice_number"
	StepInvoiceDate   Step = "invoice_date"
	StepCMRNumber     Step = "cmr_number"
	StepCMRDate       Step = "cmr_date"
)

// Steps lists every step in conversation order.
var Steps = []Step{
	StepProduct,
	StepNetto,
	StepBrutto,
	StepPlaces,
	StepPrice,
	StepAddMore,
	StepInvoiceNumber,
	StepInvoiceDate,
	StepCMRNumber,
	StepCMRDate,
}

func (s Step) String() string { return string(s) }

// Valid reports whether s is one of the enumerated steps.
func (s Step) Valid() bool {
	for _, step := range Steps {
		if s == step {
			return true
		}
	}
	return false
}

// ParseStep converts a persisted step name back into a Step.
func ParseStep(v string) (Step, error) {
	s := Step(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown conversation step %q", v)
	}
	return s, nil
}

// DocumentKind selects how a batch file is reduced to candidate text.
type DocumentKind string

const (
	DocumentKindTabular DocumentKind = "tabular"
	DocumentKindOCR     DocumentKind = "ocr"
)

// ExtensionKinds maps lower-case file extensions (without dot) to their document kind.
var ExtensionKinds = map[string]DocumentKind{
	"xlsx": DocumentKindTabular,
	"pdf":  DocumentKindOCR,
	"jpg":  DocumentKindOCR,
	"jpeg": DocumentKindOCR,
	"png":  DocumentKindOCR,
}

// ContentTypes maps OCR extensions to MIME types understood by OCR engines.
var ContentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Command is an explicit chat command.
type Command string

const (
	CommandStart  Command = "/start"
	CommandHelp   Command = "/help"
	CommandCancel Command = "/cancel"
)
