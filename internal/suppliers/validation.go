package suppliers

import "github.com/obra-dashboard/obra/internal/shared"

var fieldMessages = map[string]string{
	"Name":        "Nome do fornecedor é obrigatório",
	"Document":    "CNPJ/CPF muito longo",
	"ServiceType": "Tipo de serviço muito longo",
	"ContactName": "Nome do contato muito longo",
	"Phone":       "Telefone muito longo",
	"Email":       "Informe um e-mail válido",
}

func (s *Service) validateSupplier(sup Supplier) error {
	if err := s.validate.Struct(sup); err != nil {
		return shared.FromValidator(err, fieldMessages)
	}
	return nil
}
