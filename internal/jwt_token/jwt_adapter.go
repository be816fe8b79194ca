package jwttoken

// ValidateIdentity satisfies the identity middleware's validator.
func (s *JWTService) ValidateIdentity(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Identity(), nil
}
