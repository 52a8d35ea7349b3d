package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "patchdesk/pkg/domain-errors"
)

type JWTSuite struct {
	suite.Suite
	service *Service
}

func (s *JWTSuite) SetupTest() {
	s.service = NewService("test-signing-key", "patchdesk")
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTSuite))
}

func (s *JWTSuite) TestRoundTrip() {
	token, err := s.service.GenerateAccessToken("u_1", "Alice", "analyst", "ws_demo", time.Hour)
	s.Require().NoError(err)

	claims, err := s.service.ValidateToken(token)
	s.Require().NoError(err)
	s.Equal("u_1", claims.UserID)
	s.Equal("Alice", claims.DisplayName)
	s.Equal("analyst", claims.Role)
	s.Equal("ws_demo", claims.WorkspaceID)
	s.Equal("patchdesk", claims.Issuer)
	s.NotEmpty(claims.ID)
}

func (s *JWTSuite) TestRejectsForeignKey() {
	other := NewService("some-other-key", "patchdesk")
	token, err := other.GenerateAccessToken("u_1", "Alice", "analyst", "ws_demo", time.Hour)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestRejectsExpiredToken() {
	token, err := s.service.GenerateAccessToken("u_1", "Alice", "analyst", "ws_demo", -time.Minute)
	s.Require().NoError(err)

	_, err = s.service.ValidateToken(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *JWTSuite) TestRejectsGarbage() {
	_, err := s.service.ValidateToken("not.a.token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
