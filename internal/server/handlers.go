// Package server exposes the health check and the built-in test page.
package server

import (
	"fmt"
	"net/http"
)

// HealthHandler provides a simple health check endpoint that returns server status.
// It responds with a plain text message indicating the server is running.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "chatrelay server is running!")
}

// TestPageHandler serves an HTML page for exercising the relay by hand. It
// connects as a user, joins a conversation and sends envelopes.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	html := `<!DOCTYPE html>
<html>
<head>
    <title>chatrelay test page</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages { 
            border: 1px solid #ccc; 
            height: 300px; 
            padding: 10px; 
            overflow-y: scroll; 
            margin: 10px 0;
            background-color: #f9f9f9;
        }
        input[type="text"] { 
            width: 300px; 
            padding: 5px; 
            margin-right: 10px;
        }
        button { 
            padding: 5px 15px; 
            background-color: #007cba; 
            color: white; 
            border: none; 
            cursor: pointer;
        }
        button:hover { background-color: #005a87; }
        .status { 
            margin: 10px 0; 
            padding: 5px; 
            border-radius: 3px;
        }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>chatrelay test page</h1>
    
    <div id="status" class="status disconnected">Disconnected</div>
    
    <div>
        <input type="text" id="userInput" placeholder="User ID">
        <button id="connectButton" onclick="toggleConnection()">Connect</button>
    </div>
    <div>
        <input type="text" id="conversationInput" placeholder="Conversation ID" disabled>
        <button id="joinButton" onclick="joinConversation()" disabled>Join</button>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message..." disabled>
        <button id="sendButton" onclick="sendMessage()" disabled>Send</button>
    </div>
    
    <div id="messages"></div>

    <script>
        let ws = null;
        const messagesDiv = document.getElementById('messages');
        const messageInput = document.getElementById('messageInput');
        const userInput = document.getElementById('userInput');
        const conversationInput = document.getElementById('conversationInput');
        const joinButton = document.getElementById('joinButton');
        const sendButton = document.getElementById('sendButton');
        const connectButton = document.getElementById('connectButton');
        const statusDiv = document.getElementById('status');

        function addMessage(message, type = 'info') {
            const messageElement = document.createElement('div');
            messageElement.style.margin = '5px 0';
            messageElement.style.padding = '3px';
            
            if (type === 'sent') {
                messageElement.style.color = 'blue';
                messageElement.textContent = 'You: ' + message;
            } else if (type === 'received') {
                messageElement.style.color = 'green';
                messageElement.textContent = message;
            } else {
                messageElement.style.color = 'gray';
                messageElement.textContent = message;
            }
            
            messagesDiv.appendChild(messageElement);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function updateStatus(connected) {
            if (connected) {
                statusDiv.textContent = 'Connected';
                statusDiv.className = 'status connected';
                messageInput.disabled = false;
                sendButton.disabled = false;
                conversationInput.disabled = false;
                joinButton.disabled = false;
                userInput.disabled = true;
                connectButton.textContent = 'Disconnect';
            } else {
                statusDiv.textContent = 'Disconnected';
                statusDiv.className = 'status disconnected';
                messageInput.disabled = true;
                sendButton.disabled = true;
                conversationInput.disabled = true;
                joinButton.disabled = true;
                userInput.disabled = false;
                connectButton.textContent = 'Connect';
            }
        }

        function connect() {
            const userId = userInput.value.trim();
            if (!userId) {
                addMessage('Enter a user ID first');
                return;
            }
            const scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
            ws = new WebSocket(scheme + location.host + '/ws?userId=' + encodeURIComponent(userId));
            
            ws.onopen = function(event) {
                addMessage('Connected as ' + userId);
                updateStatus(true);
            };
            
            ws.onmessage = function(event) {
                try {
                    const env = JSON.parse(event.data);
                    addMessage(env.event + ' ' + JSON.stringify(env.data), 'received');
                } catch (e) {
                    addMessage(event.data, 'received');
                }
            };
            
            ws.onclose = function(event) {
                addMessage('Connection closed');
                updateStatus(false);
                ws = null;
            };
            
            ws.onerror = function(error) {
                addMessage('Connection error: ' + error);
                updateStatus(false);
            };
        }

        function disconnect() {
            if (ws) {
                ws.close();
            }
        }

        function toggleConnection() {
            if (ws && ws.readyState === WebSocket.OPEN) {
                disconnect();
            } else {
                connect();
            }
        }

        function emit(event, data) {
            if (ws && ws.readyState === WebSocket.OPEN) {
                ws.send(JSON.stringify({ event: event, data: data }));
                return true;
            }
            return false;
        }

        function joinConversation() {
            const conversationId = conversationInput.value.trim();
            if (conversationId) {
                emit('join_conversation', { conversationId: conversationId });
            }
        }

        function sendMessage() {
            const message = messageInput.value.trim();
            const conversationId = conversationInput.value.trim();
            if (message && conversationId && emit('send_message', { conversationId: conversationId, content: message })) {
                addMessage(message, 'sent');
                messageInput.value = '';
            }
        }

        messageInput.addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
	_, _ = fmt.Fprint(w, html)
}
