// Package rfb implements an RFB (VNC) protocol client: handshake and
// authentication (VNC-DES and Apple ARD's Diffie-Hellman + AES-128-ECB),
// the Raw/zlib framebuffer decoder, keyboard/mouse input, clipboard, and
// multi-head screen detection. See Dial to establish a session.
package rfb
