// Package detatoolkit fornece um cliente tipado para a Deta Base e os
// utilitários em volta dele: configuração, transporte HTTP observável,
// repositórios genéricos e um emulador local da API.
//
// Visão Geral:
// Este módulo é uma caixa de ferramentas para construir serviços Go sobre a
// Deta Base de forma rápida e testável, fornecendo soluções modulares para:
// 1. Cliente (detabase): envelope de itens, builder de updates, reconciliação de batches e erros tipados.
// 2. Transporte (transport): Sender plugável com middlewares de log, métricas e request id.
// 3. Configuração (envloader, pkg/config, credential): env vars, YAML, S3, DynamoDB, SSM e Secrets Manager.
// 4. Repositórios (easyrepo): Service-Repository com validação e hooks sobre detabase.Store.
// 5. Emulador (tools/emulator, cmd/emulator): API compatível para testes locais,
// com armazenamento em memória, Redis, DynamoDB (dyndb) ou Postgres.
//
// Sub-Pacotes Principais:
//
// 1. detabase:
//   - Get/GetItem, Put, PutMany, Insert, Update e Delete genéricos sobre Item[T].
//   - Store[T] e MockStore[T] para injeção e testes.
//   - OpError carrega operação, base, chave e status HTTP.
//
// 2. envloader:
//   - Carregamento de configurações via tags "env" e "envDefault".
//   - Suporte a tipos nativos e structs aninhadas, com tratamento de erros tipados.
//
// 3. dyndb:
//   - Abstração de persistência DynamoDB (Store[T]) usada pelo emulador.
//
// Exemplo de Início Rápido:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/raywall/deta-toolkit/detabase"
//	)
//
//	type User struct {
//		Name string `json:"name"`
//		Age  int    `json:"age"`
//	}
//
//	func main() {
//		// DETA_PROJECT_KEY, DETA_BASE_NAME e DETA_BASE_ENDPOINT (opcional)
//		deta, err := detabase.NewFromEnv()
//		if err != nil {
//			log.Fatalf("Erro ao criar cliente: %v", err)
//		}
//		users := deta.Base("users")
//
//		ctx := context.Background()
//		key, err := detabase.Put(ctx, users, detabase.NewItem(User{Name: "Ana", Age: 32}))
//		if err != nil {
//			log.Fatalf("Erro ao salvar: %v", err)
//		}
//
//		err = users.Update(ctx, key, detabase.NewUpdate().Increment("age", 1))
//		if err != nil {
//			log.Fatalf("Erro no update: %v", err)
//		}
//
//		user, err := detabase.Get[User](ctx, users, key)
//		log.Printf("Item: %+v %v", user, err)
//	}
package detatoolkit
