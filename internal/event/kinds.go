package event

// Kind names an event type. Kind values are persisted and must never change.
type Kind string

const (
	KindCaseReceived                    Kind = "CaseReceived"
	KindCaseReceivedWithWarnings        Kind = "CaseReceivedWithWarnings"
	KindCaseRejected                    Kind = "CaseRejected"
	KindReceivedWithDuplicateDefendants Kind = "ReceivedWithDuplicateDefendants"
	KindDefendantsAdded                 Kind = "DefendantsAdded"
	KindDefendantsReceivedNotAdded      Kind = "DefendantsReceivedNotAdded"
	KindDefendantValidationFailed       Kind = "DefendantValidationFailed"
	KindDefendantsParkedForApproval     Kind = "DefendantsParkedForApproval"
	KindSummonsRejected                 Kind = "SummonsRejected"
	KindCaseValidationCompleted         Kind = "CaseValidationCompleted"
	KindCaseResolved                    Kind = "CaseResolved"
	KindCaseAccepted                    Kind = "CaseAccepted"
	KindCaseAcceptedWithWarnings        Kind = "CaseAcceptedWithWarnings"
	KindMaterialPending                 Kind = "MaterialPending"
	KindMaterialAdded                   Kind = "MaterialAdded"
	KindMaterialAddedWithWarnings       Kind = "MaterialAddedWithWarnings"
	KindMaterialRejected                Kind = "MaterialRejected"
	KindDocumentReviewRequired          Kind = "DocumentReviewRequired"
	KindIDPCMatched                     Kind = "IDPCMatched"
	KindCaseDefendantChanged            Kind = "CaseDefendantChanged"
	KindCaseAssigned                    Kind = "CaseAssigned"
	KindCaseUnassigned                  Kind = "CaseUnassigned"
	KindCaseEjected                     Kind = "CaseEjected"
	KindCaseFiltered                    Kind = "CaseFiltered"
	KindCaseReferredToCourt             Kind = "CaseReferredToCourt"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Kinds returns every kind known to this build, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCaseReceived,
		KindCaseReceivedWithWarnings,
		KindCaseRejected,
		KindReceivedWithDuplicateDefendants,
		KindDefendantsAdded,
		KindDefendantsReceivedNotAdded,
		KindDefendantValidationFailed,
		KindDefendantsParkedForApproval,
		KindSummonsRejected,
		KindCaseValidationCompleted,
		KindCaseResolved,
		KindCaseAccepted,
		KindCaseAcceptedWithWarnings,
		KindMaterialPending,
		KindMaterialAdded,
		KindMaterialAddedWithWarnings,
		KindMaterialRejected,
		KindDocumentReviewRequired,
		KindIDPCMatched,
		KindCaseDefendantChanged,
		KindCaseAssigned,
		KindCaseUnassigned,
		KindCaseEjected,
		KindCaseFiltered,
		KindCaseReferredToCourt,
	}
}
