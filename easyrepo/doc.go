/*
Package easyrepo fornece uma abstração genérica para o padrão Service-Repository
sobre uma Deta Base.

O objetivo deste pacote é reduzir o boilerplate em microserviços Go, entregando:
  - Validação de entrada automática via struct tags (validator/v10).
  - Operações padronizadas com suporte a Generics.
  - Integração simplificada com detabase.Store.

Exemplo de uso:

	type User struct {
		Name  string `json:"name" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	deta, _ := detabase.New(projectKey)
	service := easyrepo.NewService(detabase.NewStore[User](deta.Base("users")))
	key, err := service.Create(ctx, "", &User{Name: "Ana", Email: "ana@example.com"})

Erros da Base são traduzidos para ErrNotFound, ErrAlreadyExists e
ErrInvalidInput, preservando o erro original na cadeia (errors.Is/As).
*/
package easyrepo
