// Package pending tracks work that cannot be finalised yet.
//
// Materials that arrive before their case is accepted are parked as
// pending and validated in receipt order once acceptance arrives. A pending
// material that outlives its allotted lifetime is expired into a rejection
// with the MATERIAL_EXPIRED problem code. Expiry of a material that is no
// longer pending emits nothing.
//
// Summons applications that pass validation are parked until the court
// approves or rejects them. Approval promotes the parked defendants into
// the case; rejection moves them to the rejected-applications record so a
// later re-submission of the same defendants can name the refused
// application.
//
// Every function here takes the folded case state and returns the events to
// emit. Nothing is mutated; the caller folds the returned events.
package pending
