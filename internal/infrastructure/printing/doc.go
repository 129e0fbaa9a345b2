// Package printing renders kitchen tickets to PDF through headless Chrome.
//
// Example usage:
//
//	renderer, err := NewChromedpRenderer(&ChromedpConfig{NoSandbox: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer renderer.Close()
//
//	html, err := RenderTicket(NewTicket(storeName, o, loc))
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html, Title: "Pedido #" + o.ID})
package printing
