package main

import (
	"fmt"
	"html"
	"net/http"
	"os"
)

// Upstream de teste para o gateway: mostra qual principal chegou.
func main() {
	header := os.Getenv("QUOTA_PRINCIPAL_HEADER")
	if header == "" {
		header = "X-Principal"
	}

	http.HandleFunc("/showTela", func(w http.ResponseWriter, r *http.Request) {
		who := r.Header.Get(header)
		if who == "" {
			who = "anonymous"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<h1>Tela do Sistema</h1><p>Requisição recebida de %s</p>", html.EscapeString(who))
		fmt.Printf("Log: %s acessou o endpoint /showTela\n", who)
	})
	fmt.Println("Servidor rodando em http://localhost:8081")
	err := http.ListenAndServe(":8081", nil)
	if err != nil {
		fmt.Printf("Erro ao subir o servidor: %s\n", err)
	}
}
