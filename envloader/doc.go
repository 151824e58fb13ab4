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
// Package envloader carrega variáveis de ambiente diretamente para campos
// de uma struct Go, usando as tags `env`, `envDefault` e `envRequired`.
//
// Visão Geral:
// O `envloader` usa reflection para mapear variáveis de ambiente para campos
// tipados. Suporta string, int, uint, bool, float, time.Duration, []string
// (separado por vírgulas) e structs aninhadas, inclusive ponteiros.
//
// Funcionalidades Principais:
// - Mapeamento por Tag: `env:"VAR_NAME"` indica a variável.
// - Valores Padrão: `envDefault:"value"` é usado quando a variável está ausente ou vazia.
// - Obrigatoriedade: `envRequired:"true"` retorna *MissingVariableError se não houver valor.
// - Durações: aceitam "30s", "1m30s" ou um número inteiro de segundos.
//
// Exemplo:
//
//	type Config struct {
//		ProjectKey string        `env:"DETA_PROJECT_KEY" envRequired:"true"`
//		BaseName   string        `env:"DETA_BASE_NAME" envDefault:"main"`
//		Timeout    time.Duration `env:"DETA_HTTP_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg Config
//	if err := envloader.Load(&cfg); err != nil {
//		var missing *envloader.MissingVariableError
//		if errors.As(err, &missing) {
//			log.Fatalf("defina %s", missing.EnvVar)
//		}
//		log.Fatal(err)
//	}
package envloader
