// Package credential resolve a project key do Deta (e outros segredos de
// configuração) a partir de fontes diferentes: valor estático, variável de
// ambiente, AWS SSM Parameter Store ou AWS Secrets Manager.
//
// As fontes AWS recebem o cliente do SDK por interface, o que permite
// testá-las com mocks. Os construtores `SSM` e `Secret` criam o cliente real
// a partir de uma aws.Config compartilhada (veja AWSConfig).
//
//	src := credential.Chain(
//		credential.Env("DETA_PROJECT_KEY"),
//		credential.SSM(ctx, "us-east-1", "/deta/project-key"),
//	)
//	key, err := src.Resolve(ctx)
package credential
