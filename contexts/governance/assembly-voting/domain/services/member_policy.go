package services

import (
	"net/mail"
	"strings"

	"assembleia/contexts/governance/assembly-voting/domain/entities"
	domainerrors "assembleia/contexts/governance/assembly-voting/domain/errors"
)

// NormalizeMember trims the member fields and validates them.
func NormalizeMember(name string, nationalID string, email string) (entities.Member, error) {
	member := entities.Member{
		Name:       strings.TrimSpace(name),
		NationalID: entities.NormalizeNationalID(nationalID),
		Email:      strings.ToLower(strings.TrimSpace(email)),
	}
	if member.Name == "" || !entities.IsValidNationalID(member.NationalID) || !isValidEmail(member.Email) {
		return entities.Member{}, domainerrors.ErrInvalidMemberInput
	}
	return member, nil
}

func isValidEmail(value string) bool {
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value && strings.Contains(value[strings.LastIndex(value, "@")+1:], ".")
}
