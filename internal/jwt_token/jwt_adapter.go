package jwttoken

import (
	authmw "custody/pkg/platform/middleware/auth"
)

// JWTServiceAdapter exposes the service to the auth middleware.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	caller, err := claims.Identity()
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{Identity: caller, JTI: claims.ID}, nil
}
