// Package domain define contratos e tipos de domínio para governança de quotas
// (limite configurado x uso registrado) e limite de conexões.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
