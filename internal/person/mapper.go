package person

import "strings"

// PersonDTO is the JSON shape of a person. ID and Version are output only.
type PersonDTO struct {
	ID             int64    `json:"id,omitempty"`
	Name           string   `json:"name" validate:"notblank"`
	Surname        string   `json:"surname" validate:"notblank"`
	PIN            string   `json:"pin" validate:"notblank,len=11,number"`
	Sex            string   `json:"sex" validate:"notblank,sex"`
	EmailAddresses []string `json:"emailAddresses" validate:"dive,notblank,email"`
	PhoneNumbers   []string `json:"phoneNumbers" validate:"dive,notblank,phone"`
	Version        int      `json:"version"`
}

// EmailAddressesRequest is the body of the add-email operation.
type EmailAddressesRequest struct {
	EmailAddresses []string `json:"emailAddresses" validate:"required,min=1,dive,notblank,email"`
}

// PhoneNumbersRequest is the body of the add-phone operation.
type PhoneNumbersRequest struct {
	PhoneNumbers []string `json:"phoneNumbers" validate:"required,min=1,dive,notblank,phone"`
}

func ToDTO(p *Person) *PersonDTO {
	if p == nil {
		return nil
	}
	return &PersonDTO{
		ID:             p.ID,
		Name:           p.Name,
		Surname:        p.Surname,
		PIN:            p.PIN,
		Sex:            string(p.Sex),
		EmailAddresses: append([]string{}, p.EmailAddresses...),
		PhoneNumbers:   append([]string{}, p.PhoneNumbers...),
		Version:        p.Version,
	}
}

func ToDTOs(persons []Person) []PersonDTO {
	out := make([]PersonDTO, 0, len(persons))
	for i := range persons {
		out = append(out, *ToDTO(&persons[i]))
	}
	return out
}

// ToEntity never copies ID or Version; those belong to the store.
func ToEntity(dto *PersonDTO) *Person {
	if dto == nil {
		return nil
	}
	return &Person{
		Name:           dto.Name,
		Surname:        dto.Surname,
		PIN:            dto.PIN,
		Sex:            Sex(strings.ToUpper(strings.TrimSpace(dto.Sex))),
		EmailAddresses: mergeSet(nil, dto.EmailAddresses...),
		PhoneNumbers:   mergeSet(nil, dto.PhoneNumbers...),
	}
}
