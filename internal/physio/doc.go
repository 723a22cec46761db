// Package physio implements the blood-pressure and renal-fluid homeostasis
// model: autonomic neural control, systemic hemodynamics, renal
// vasculature, the renin-angiotensin-aldosterone cascade, ADH, and
// segment-by-segment tubular sodium/water handling, assembled into a single
// ODE right-hand side with a fixed evaluation order.
package physio
