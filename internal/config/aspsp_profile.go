package config

import "time"

// MinFrequencyPerDay caps the TPP requested frequency by the bank floor.
// Negative requests are taken by absolute value.
func (p *AspspProfileConfig) MinFrequencyPerDay(requested int) int {
	if requested < 0 {
		requested = -requested
	}
	if requested < p.FrequencyPerDay {
		return requested
	}
	return p.FrequencyPerDay
}

// ConsentLifetimeDays is the maximum consent validity in days, 0 meaning unlimited
func (p *AspspProfileConfig) ConsentLifetimeDays() int {
	return p.MaxConsentValidityDays
}

func (p *AspspProfileConfig) RedirectURLExpiration() time.Duration {
	return time.Duration(p.RedirectURLExpirationTimeMs) * time.Millisecond
}

func (p *AspspProfileConfig) AuthorisationExpiration() time.Duration {
	return time.Duration(p.AuthorisationExpirationTimeMs) * time.Millisecond
}

func (p *AspspProfileConfig) PaymentCancellationRedirectURLExpiration() time.Duration {
	return time.Duration(p.PaymentCancellationRedirectURLExpirationMs) * time.Millisecond
}

func (p *AspspProfileConfig) NotConfirmedConsentExpiration() time.Duration {
	return time.Duration(p.NotConfirmedConsentExpirationTimeMs) * time.Millisecond
}

func (p *AspspProfileConfig) NotConfirmedPaymentExpiration() time.Duration {
	return time.Duration(p.NotConfirmedPaymentExpirationTimeMs) * time.Millisecond
}
