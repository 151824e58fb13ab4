// Package detabase é um cliente tipado para o Deta Base, um key-value store
// de documentos JSON acessado via HTTP.
//
// Visão Geral:
// Um `Client` representa um projeto (identificado pela project key) e pode
// ser vinculado a uma Base com `Base(name)`. As operações são funções
// genéricas, já que métodos em Go não aceitam parâmetros de tipo:
//
//	deta, err := detabase.New(os.Getenv("DETA_PROJECT_KEY"))
//	users := deta.Base("users")
//
//	key, err := detabase.Insert(ctx, users, detabase.NewItemWithKey("id1", user))
//	u, err := detabase.Get[User](ctx, users, "id1")
//
//	err = users.Update(ctx, "id1", detabase.NewUpdate().
//		Set("profile.age", 33).
//		Increment("purchases", 1))
//
// Codec:
// Valores que não são objetos JSON (números, strings, listas) são gravados
// como `{"key": k, "value": v}`. Objetos são gravados como estão, com a
// chave no campo "key". Veja Encode, DecodeSingle e DecodeItem.
//
// Erros:
// Toda falha de operação é um *OpError que embrulha um dos erros sentinela
// (ErrItemNotFound, ErrKeyConflict, ...). Use errors.Is para decidir e
// errors.As para obter status HTTP, Base e chave.
//
// Testes:
// `Store[T]` e `MockStore[T]` permitem testar código que usa o cliente sem
// rede. Para testar contra HTTP real, use o emulador em tools/emulator.
package detabase
