package shacl

import "github.com/oaknational/currigraph/rdf"

// Shape graph terms.
const (
	NodeShapeClass = rdf.IRI(rdf.NSSHACL + "NodeShape")

	TargetClass = rdf.IRI(rdf.NSSHACL + "targetClass")
	Property    = rdf.IRI(rdf.NSSHACL + "property")
	Path        = rdf.IRI(rdf.NSSHACL + "path")
	InversePath = rdf.IRI(rdf.NSSHACL + "inversePath")

	MinCount     = rdf.IRI(rdf.NSSHACL + "minCount")
	MaxCount     = rdf.IRI(rdf.NSSHACL + "maxCount")
	DatatypeCons = rdf.IRI(rdf.NSSHACL + "datatype")
	ClassCons    = rdf.IRI(rdf.NSSHACL + "class")
	NodeKindCons = rdf.IRI(rdf.NSSHACL + "nodeKind")
	Pattern      = rdf.IRI(rdf.NSSHACL + "pattern")
	Flags        = rdf.IRI(rdf.NSSHACL + "flags")
	In           = rdf.IRI(rdf.NSSHACL + "in")
	HasValue     = rdf.IRI(rdf.NSSHACL + "hasValue")
	Or           = rdf.IRI(rdf.NSSHACL + "or")

	SeverityProp = rdf.IRI(rdf.NSSHACL + "severity")
	Message      = rdf.IRI(rdf.NSSHACL + "message")
	Name         = rdf.IRI(rdf.NSSHACL + "name")
)

// Node kinds.
const (
	NodeKindIRI                = rdf.IRI(rdf.NSSHACL + "IRI")
	NodeKindBlankNode          = rdf.IRI(rdf.NSSHACL + "BlankNode")
	NodeKindLiteral            = rdf.IRI(rdf.NSSHACL + "Literal")
	NodeKindBlankNodeOrIRI     = rdf.IRI(rdf.NSSHACL + "BlankNodeOrIRI")
	NodeKindIRIOrLiteral       = rdf.IRI(rdf.NSSHACL + "IRIOrLiteral")
	NodeKindBlankNodeOrLiteral = rdf.IRI(rdf.NSSHACL + "BlankNodeOrLiteral")
)

// Severities.
const (
	Violation = rdf.IRI(rdf.NSSHACL + "Violation")
	Warning   = rdf.IRI(rdf.NSSHACL + "Warning")
	Info      = rdf.IRI(rdf.NSSHACL + "Info")
)

// Report terms.
const (
	ValidationReportClass = rdf.IRI(rdf.NSSHACL + "ValidationReport")
	ValidationResultClass = rdf.IRI(rdf.NSSHACL + "ValidationResult")
	Conforms              = rdf.IRI(rdf.NSSHACL + "conforms")
	ResultProp            = rdf.IRI(rdf.NSSHACL + "result")
	FocusNode             = rdf.IRI(rdf.NSSHACL + "focusNode")
	ResultPath            = rdf.IRI(rdf.NSSHACL + "resultPath")
	ResultValue           = rdf.IRI(rdf.NSSHACL + "value")
	ResultSeverity        = rdf.IRI(rdf.NSSHACL + "resultSeverity")
	ResultMessage         = rdf.IRI(rdf.NSSHACL + "resultMessage")
	SourceShape           = rdf.IRI(rdf.NSSHACL + "sourceShape")
	SourceConstraint      = rdf.IRI(rdf.NSSHACL + "sourceConstraintComponent")
)

// Constraint components reported in results.
const (
	MinCountComponent = rdf.IRI(rdf.NSSHACL + "MinCountConstraintComponent")
	MaxCountComponent = rdf.IRI(rdf.NSSHACL + "MaxCountConstraintComponent")
	DatatypeComponent = rdf.IRI(rdf.NSSHACL + "DatatypeConstraintComponent")
	ClassComponent    = rdf.IRI(rdf.NSSHACL + "ClassConstraintComponent")
	NodeKindComponent = rdf.IRI(rdf.NSSHACL + "NodeKindConstraintComponent")
	PatternComponent  = rdf.IRI(rdf.NSSHACL + "PatternConstraintComponent")
	InComponent       = rdf.IRI(rdf.NSSHACL + "InConstraintComponent")
	HasValueComponent = rdf.IRI(rdf.NSSHACL + "HasValueConstraintComponent")
	OrComponent       = rdf.IRI(rdf.NSSHACL + "OrConstraintComponent")
)
