// Package dyndb fornece uma abstração genérica e fortemente tipada sobre o
// AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote `dyndb` oferece a interface `Store[T]`, que simplifica as operações
// de item e batch, eliminando a necessidade de lidar diretamente com os tipos
// de baixo nível do SDK do DynamoDB (AttributeValue, etc.). No toolkit ele é
// o backend "dynamodb" do emulador do Deta Base.
//
// Funcionalidades Principais:
// - CRUD Tipado: Operações `Get`, `Put`, `Delete` usando tipos Go nativos.
// - Escrita Condicional: `PutIfAbsent` usa `attribute_not_exists` e retorna ErrExists.
// - Transação: `TransactPut` grava até 100 itens com TransactWriteItems, todos ou nenhum.
// - TTL: preenche o atributo de TTL quando configurado e ausente no item.
// - Mocks Integrados: `MockStore` para testes unitários.
//
// Exemplo:
//
//	type Record struct {
//		ID  string `dynamodbav:"id"`
//		Doc string `dynamodbav:"doc"`
//	}
//
//	cfg := dyndb.TableConfig[Record]{TableName: "deta-items", HashKey: "id"}
//	store, err := dyndb.New(dynamodb.NewFromConfig(awsCfg), cfg)
//
//	err = store.PutIfAbsent(ctx, Record{ID: "main/u1", Doc: `{"name":"ana"}`})
//	if errors.Is(err, dyndb.ErrExists) { /* ... */ }
//
// Configuração:
// Sem `TableName`, `New` lê a configuração das variáveis DYNAMODB_TABLE_NAME,
// DYNAMODB_HASH_KEY, DYNAMODB_SORT_KEY, DYNAMODB_TTL_ATTRIBUTE e DYNAMODB_TTL.
package dyndb
