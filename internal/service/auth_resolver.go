package service

import (
	"fmt"

	"github.com/wso2/psd2-consent-management/internal/models"
)

// AuthServiceResolver dispatches an authorisation type to its service
type AuthServiceResolver struct {
	services map[models.AuthorisationType]AuthService
}

// NewAuthServiceResolver creates a resolver holding the given services
func NewAuthServiceResolver(services ...AuthService) (*AuthServiceResolver, error) {
	r := &AuthServiceResolver{
		services: make(map[models.AuthorisationType]AuthService, len(services)),
	}
	for _, svc := range services {
		if err := r.Register(svc); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a service to the resolver.
// Returns error if a service for this type is already registered.
func (r *AuthServiceResolver) Register(svc AuthService) error {
	authType := svc.Type()
	if _, exists := r.services[authType]; exists {
		return fmt.Errorf("authorisation service for type %q already registered", authType)
	}
	r.services[authType] = svc
	return nil
}

// Resolve returns the service for authType. An unregistered type is a
// programming error and panics.
func (r *AuthServiceResolver) Resolve(authType models.AuthorisationType) AuthService {
	svc, exists := r.services[authType]
	if !exists {
		panic(fmt.Sprintf("no authorisation service registered for type %q", authType))
	}
	return svc
}

// Types returns the registered authorisation types
func (r *AuthServiceResolver) Types() []models.AuthorisationType {
	types := make([]models.AuthorisationType, 0, len(r.services))
	for authType := range r.services {
		types = append(types, authType)
	}
	return types
}
