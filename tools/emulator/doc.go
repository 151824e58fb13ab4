// Copyright 2025 Raywall Malheiros de Souza
// Licensed under the Mozilla Public License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.mozilla.org/en-US/MPL/2.0/
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Package emulator fornece um servidor HTTP local que responde como a API v1
// do Deta Base, para desenvolvimento offline e testes de integração do
// detabase.Client sem depender do serviço real.
//
// Rotas atendidas (todas sob /v1/{project}/{base}):
//
//	GET    /items/{key}   200 item | 404
//	DELETE /items/{key}   200 {"key": ...}, mesmo para chave ausente
//	PUT    /items         207 {"processed": ..., "failed": ...} | 400
//	POST   /items         201 item | 409 chave existente | 400
//	PATCH  /items/{key}   200 | 404 | 400
//
// Quando uma project key é configurada, o header X-API-Key precisa ser igual
// a ela e o {project} da rota precisa ser o id da key; caso contrário 401.
//
// Os itens ficam no storage.Storage escolhido na configuração (memória,
// Redis, DynamoDB ou Postgres), separados por projeto e base.
//
// Exemplo:
//
//	store := storage.NewMemory()
//	srv, err := emulator.NewServer(store, emulator.WithProjectKey("abc_secret"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	log.Fatal(srv.ListenAndServe(ctx, ":4566", 10*time.Second))
package emulator
