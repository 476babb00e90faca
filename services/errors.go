package services

import "errors"

// Error taxonomy for the estimation pipeline. Only ErrResolution is ever
// surfaced to callers; everything else is absorbed by a fallback tier.
var (
	ErrResolution         = errors.New("no coordinates found for city")
	ErrRouting            = errors.New("routing service unavailable")
	ErrAuth               = errors.New("flight token exchange rejected")
	ErrPricingUnavailable = errors.New("pricing service unavailable")
	ErrAIParse            = errors.New("ai response unparseable")
)
